// Command fatkitd serves the file system console over HTTP. Every command
// the interactive shell understands can be posted to /command, which makes
// the image drivable from a frontend.
package main

import (
	"log"
	"net/http"
	"sync"

	"github.com/fatkit/fatkit/shell"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
)

type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

type commandResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// server serializes commands onto the single-threaded dispatcher.
type server struct {
	mu         sync.Mutex
	dispatcher *shell.Dispatcher
}

func (s *server) command(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, commandResponse{Error: err.Error()})
		return
	}

	s.mu.Lock()
	output, err := s.dispatcher.Execute(req.Command)
	s.mu.Unlock()

	if err == shell.ErrExit {
		c.JSON(http.StatusBadRequest, commandResponse{Error: "exit is not available over http"})
		return
	}
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, commandResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, commandResponse{Output: output})
}

func (s *server) health(c *gin.Context) {
	s.mu.Lock()
	mounted := s.dispatcher.Mounted()
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"status": "ok", "mounted": mounted})
}

func main() {
	listen := flag.String("listen", ":8080", "address to serve on")
	image := flag.String("image", "", "image file to mount at startup")
	password := flag.String("password", "", "apply the XOR mask with this password on format and mount")
	flag.Parse()

	dispatcher := shell.New(afero.NewOsFs())
	dispatcher.Password = *password
	defer dispatcher.Close()

	if *image != "" {
		if _, err := dispatcher.Execute("mount " + *image); err != nil {
			log.Fatalf("mount %s: %v", *image, err)
		}
		log.Printf("mounted %s", *image)
	}

	s := &server{dispatcher: dispatcher}

	router := gin.Default()
	router.GET("/healthz", s.health)
	router.POST("/command", s.command)

	if err := router.Run(*listen); err != nil {
		log.Fatal(err)
	}
}
