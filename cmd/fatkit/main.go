// Command fatkit is the interactive console of the file system. It drives
// images on the real disk; an image given on the command line is mounted
// before the first prompt.
package main

import (
	"fmt"
	"os"

	"github.com/fatkit/fatkit/shell"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
)

func main() {
	image := flag.String("image", "", "image file to mount at startup")
	password := flag.String("password", "", "apply the XOR mask with this password on format and mount")
	flag.Parse()

	dispatcher := shell.New(afero.NewOsFs())
	dispatcher.Password = *password
	defer dispatcher.Close()

	if *image != "" {
		output, err := dispatcher.Execute("mount " + *image)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Println(output)
	}

	if err := dispatcher.Run(os.Stdin, os.Stdout); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
