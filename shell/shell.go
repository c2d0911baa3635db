// Package shell parses the human command surface of the file system and
// dispatches onto a mounted volume. It is a thin layer: every command maps
// to one library call, errors come back to the caller untouched.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatkit/fatkit"
	"github.com/spf13/afero"
)

// ErrExit is returned by Execute when the user asked to leave the shell.
var ErrExit = errors.New("exit requested")

// errUsage carries the usage line of a badly invoked command.
type errUsage struct {
	usage string
}

func (e errUsage) Error() string {
	return "usage: " + e.usage
}

// Dispatcher executes command lines against images on a host filesystem.
// Like the volume itself it is not safe for concurrent use.
type Dispatcher struct {
	// Host is the filesystem holding the image files.
	Host afero.Fs

	// Password, when set, is applied to every format and mount.
	Password string

	fs *fatkit.Fs
}

// New returns a dispatcher without a mounted volume.
func New(host afero.Fs) *Dispatcher {
	return &Dispatcher{Host: host}
}

// Mounted reports whether a volume is currently mounted.
func (d *Dispatcher) Mounted() bool {
	return d.fs != nil
}

// Prompt returns the prompt for the interactive loop: the current path of
// the mounted volume, or "-" without one.
func (d *Dispatcher) Prompt() string {
	if d.fs == nil {
		return "-"
	}
	return d.fs.Path()
}

// Close unmounts a still mounted volume.
func (d *Dispatcher) Close() error {
	if d.fs == nil {
		return nil
	}
	err := d.fs.Unmount()
	d.fs = nil
	return err
}

// Execute runs one command line and returns its output. ErrExit means the
// line asked to leave; every other error describes a failed command.
func (d *Dispatcher) Execute(line string) (string, error) {
	cmd, rest := splitWord(strings.TrimSpace(line))
	if cmd == "" {
		return "", nil
	}

	switch cmd {
	case "exit":
		return "", ErrExit
	case "help":
		return helpText, nil
	case "format":
		return d.format(rest)
	case "mount":
		return d.mount(rest)
	case "unmount":
		return d.unmount()
	case "ls":
		return d.list()
	case "mkdir":
		return d.mkdir(rest)
	case "rmdir":
		return d.rmdir(rest)
	case "cd":
		return d.cd(rest)
	case "pwd":
		return d.pwd()
	case "create":
		return d.create(rest)
	case "write":
		return d.write(rest)
	case "read":
		return d.read(rest)
	case "delete":
		return d.delete(rest)
	case "truncate":
		return d.truncate(rest)
	case "df":
		return d.df()
	case "info":
		return d.info()
	}
	return "", fmt.Errorf("unknown command %q, type 'help' for available commands", cmd)
}

// Run drives the interactive loop until exit or end of input.
func (d *Dispatcher) Run(in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "FAT file system console")
	fmt.Fprintln(out, "Type 'help' for available commands")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 256*1024), 256*1024)

	for {
		fmt.Fprintf(out, "\n%s> ", d.Prompt())

		if !scanner.Scan() {
			break
		}

		output, err := d.Execute(scanner.Text())
		if errors.Is(err, ErrExit) {
			break
		}
		if err != nil {
			fmt.Fprintln(out, "Error:", err)
			continue
		}
		if output != "" {
			fmt.Fprintln(out, output)
		}
	}
	return scanner.Err()
}

func (d *Dispatcher) mounted() (*fatkit.Fs, error) {
	if d.fs == nil {
		return nil, fatkit.ErrNotMounted
	}
	return d.fs, nil
}

func (d *Dispatcher) format(args string) (string, error) {
	path, rest := splitWord(args)
	if path == "" || rest != "" {
		return "", errUsage{"format <path>"}
	}

	opts := fatkit.FormatOptions{Password: d.Password}
	if err := fatkit.Format(d.Host, path, opts); err != nil {
		return "", err
	}
	return fmt.Sprintf("Image %q formatted", path), nil
}

func (d *Dispatcher) mount(args string) (string, error) {
	path, rest := splitWord(args)
	if path == "" || rest != "" {
		return "", errUsage{"mount <path>"}
	}

	var opts []fatkit.Option
	if d.Password != "" {
		opts = append(opts, fatkit.WithPassword(d.Password))
	}

	fs, err := fatkit.Mount(d.Host, path, opts...)
	if err != nil {
		return "", err
	}

	// A previously mounted image is released once the new one is mounted.
	if d.fs != nil {
		d.fs.Unmount()
	}
	d.fs = fs
	return fmt.Sprintf("Mounted %q at %s", path, fs.Path()), nil
}

func (d *Dispatcher) unmount() (string, error) {
	fs, err := d.mounted()
	if err != nil {
		return "", err
	}
	if err := fs.Unmount(); err != nil {
		return "", err
	}
	d.fs = nil
	return "Unmounted", nil
}

func (d *Dispatcher) list() (string, error) {
	fs, err := d.mounted()
	if err != nil {
		return "", err
	}

	entries, err := fs.ReadDir()
	if err != nil {
		return "", err
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Contents of %s:\n", fs.Path())

	w := tabwriter.NewWriter(&out, 2, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Name\tType\tSize\tModified")
	for _, entry := range entries {
		kind := "FILE"
		if entry.IsDir() {
			kind = "DIR"
		}
		modified := ""
		if !entry.ModTime().IsZero() {
			modified = entry.ModTime().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", entry.Name(), kind, entry.Size(), modified)
	}
	w.Flush()
	return strings.TrimRight(out.String(), "\n"), nil
}

func (d *Dispatcher) mkdir(args string) (string, error) {
	name, rest := splitWord(args)
	if name == "" || rest != "" {
		return "", errUsage{"mkdir <name>"}
	}

	fs, err := d.mounted()
	if err != nil {
		return "", err
	}
	if err := fs.Mkdir(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Directory %q created", name), nil
}

func (d *Dispatcher) rmdir(args string) (string, error) {
	name, rest := splitWord(args)
	if name == "" || rest != "" {
		return "", errUsage{"rmdir <name>"}
	}

	fs, err := d.mounted()
	if err != nil {
		return "", err
	}
	if err := fs.Rmdir(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("Directory %q removed", name), nil
}

func (d *Dispatcher) cd(args string) (string, error) {
	name, rest := splitWord(args)
	if name == "" || rest != "" {
		return "", errUsage{"cd <name>"}
	}

	fs, err := d.mounted()
	if err != nil {
		return "", err
	}
	if err := fs.ChangeDir(name); err != nil {
		return "", err
	}
	return fs.Path(), nil
}

func (d *Dispatcher) pwd() (string, error) {
	fs, err := d.mounted()
	if err != nil {
		return "", err
	}
	return fs.Path(), nil
}

func (d *Dispatcher) create(args string) (string, error) {
	name, rest := splitWord(args)
	if name == "" || rest != "" {
		return "", errUsage{"create <name>"}
	}

	fs, err := d.mounted()
	if err != nil {
		return "", err
	}
	if err := fs.CreateFile(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("File %q created", name), nil
}

func (d *Dispatcher) write(args string) (string, error) {
	name, data := splitWord(args)
	if name == "" || data == "" {
		return "", errUsage{"write <name> <data>"}
	}

	fs, err := d.mounted()
	if err != nil {
		return "", err
	}
	if err := fs.WriteFile(name, []byte(data)); err != nil {
		return "", err
	}
	return fmt.Sprintf("Written %d bytes to %q", len(data), name), nil
}

func (d *Dispatcher) read(args string) (string, error) {
	name, rest := splitWord(args)
	if name == "" || rest != "" {
		return "", errUsage{"read <name>"}
	}

	fs, err := d.mounted()
	if err != nil {
		return "", err
	}
	data, err := fs.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (d *Dispatcher) delete(args string) (string, error) {
	name, rest := splitWord(args)
	if name == "" || rest != "" {
		return "", errUsage{"delete <name>"}
	}

	fs, err := d.mounted()
	if err != nil {
		return "", err
	}
	if err := fs.DeleteFile(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("File %q deleted", name), nil
}

func (d *Dispatcher) truncate(args string) (string, error) {
	name, sizeArg := splitWord(args)
	sizeText, rest := splitWord(sizeArg)
	if name == "" || sizeText == "" || rest != "" {
		return "", errUsage{"truncate <name> <size>"}
	}

	size, err := strconv.ParseUint(sizeText, 10, 32)
	if err != nil {
		return "", errUsage{"truncate <name> <size>"}
	}

	fs, err := d.mounted()
	if err != nil {
		return "", err
	}
	if err := fs.TruncateFile(name, uint32(size)); err != nil {
		return "", err
	}
	return fmt.Sprintf("File %q truncated to %d bytes", name, size), nil
}

func (d *Dispatcher) df() (string, error) {
	fs, err := d.mounted()
	if err != nil {
		return "", err
	}
	info, err := fs.Info()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d of %d blocks free (%d bytes)", info.FreeBlocks, info.TotalBlocks, uint64(info.FreeBlocks)*uint64(info.BlockSize)), nil
}

func (d *Dispatcher) info() (string, error) {
	fs, err := d.mounted()
	if err != nil {
		return "", err
	}
	info, err := fs.Info()
	if err != nil {
		return "", err
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Volume:      %s\n", info.Label)
	fmt.Fprintf(&out, "Blocks:      %d x %d bytes\n", info.TotalBlocks, info.BlockSize)
	fmt.Fprintf(&out, "FAT blocks:  %d\n", info.FATBlocks)
	fmt.Fprintf(&out, "Free blocks: %d\n", info.FreeBlocks)
	if !info.Created.IsZero() {
		fmt.Fprintf(&out, "Created:     %s\n", info.Created.Format("2006-01-02 15:04:05"))
	}
	return strings.TrimRight(out.String(), "\n"), nil
}

// splitWord cuts the first whitespace-separated word off a line.
func splitWord(line string) (string, string) {
	line = strings.TrimSpace(line)
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i], strings.TrimSpace(line[i+1:])
	}
	return line, ""
}

const helpText = `Available commands:
  format <path>            - Create and format a new image
  mount <path>             - Mount an existing image
  unmount                  - Unmount the current image
  ls                       - List the current directory
  cd <name>                - Change into a directory (.., /)
  pwd                      - Print the current path
  mkdir <name>             - Create a new directory
  rmdir <name>             - Remove an empty directory
  create <name>            - Create a new empty file
  write <name> <data>      - Overwrite a file with data
  read <name>              - Print the content of a file
  delete <name>            - Remove a file
  truncate <name> <size>   - Shrink a file to size bytes
  df                       - Show free space
  info                     - Show volume information
  help                     - Show this help
  exit                     - Leave the shell`
