package fatkit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/fatkit/fatkit/checkpoint"
	"github.com/spf13/afero"
)

// Afero returns an afero.Fs view of the volume. Names resolve in the
// current directory of the underlying Fs; nested paths are not supported,
// use ChangeDir to move. The view shares the Fs and is as single-threaded
// as the Fs itself.
func (fs *Fs) Afero() afero.Fs {
	return &aferoVolume{fs: fs}
}

type aferoVolume struct {
	fs *Fs
}

func (v *aferoVolume) Name() string {
	return "fatkit"
}

func (v *aferoVolume) Create(name string) (afero.File, error) {
	n, err := splitName(name)
	if err != nil {
		return nil, err
	}

	if err := v.fs.CreateFile(n); err != nil && !errors.Is(err, ErrAlreadyExists) {
		return nil, err
	}
	// Create truncates an existing file.
	if err := v.fs.WriteFile(n, nil); err != nil {
		return nil, err
	}
	return v.open(n, true)
}

func (v *aferoVolume) Open(name string) (afero.File, error) {
	n, err := splitName(name)
	if err != nil {
		return nil, err
	}
	return v.open(n, false)
}

func (v *aferoVolume) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	n, err := splitName(name)
	if err != nil {
		return nil, err
	}

	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0

	if flag&os.O_CREATE != 0 {
		err := v.fs.CreateFile(n)
		switch {
		case err == nil:
		case errors.Is(err, ErrAlreadyExists):
			if flag&os.O_EXCL != 0 {
				return nil, err
			}
		default:
			return nil, err
		}
	}
	if flag&os.O_TRUNC != 0 {
		if err := v.fs.WriteFile(n, nil); err != nil {
			return nil, err
		}
	}

	file, err := v.open(n, writable)
	if err != nil {
		return nil, err
	}
	if flag&os.O_APPEND != 0 {
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			file.Close()
			return nil, err
		}
	}
	return file, nil
}

// open builds a handle for an existing entry. The empty name opens the
// current directory.
func (v *aferoVolume) open(name string, writable bool) (*File, error) {
	if name == "" {
		return &File{
			fs:          v.fs,
			name:        v.fs.Path(),
			isDirectory: true,
			dirBlock:    v.fs.curDir,
			block:       v.fs.curDir,
			stat:        dirInfo{name: v.fs.Path()},
		}, nil
	}

	dir, slot, err := v.fs.lookup(v.fs.curDir, name)
	if err != nil {
		return nil, err
	}
	entry := dir.entries[slot]

	file := &File{
		fs:         v.fs,
		name:       name,
		writable:   writable && !entry.IsDir(),
		dirBlock:   v.fs.curDir,
		firstBlock: fatEntry(entry.FirstBlock),
		stat:       entry.FileInfo(),
	}
	if entry.IsDir() {
		file.isDirectory = true
		file.block = uint32(entry.FirstBlock)
	}
	return file, nil
}

func (v *aferoVolume) Remove(name string) error {
	n, err := splitName(name)
	if err != nil {
		return err
	}

	err = v.fs.DeleteFile(n)
	if errors.Is(err, ErrNotAFile) {
		return v.fs.Rmdir(n)
	}
	return err
}

func (v *aferoVolume) RemoveAll(path string) error {
	err := v.Remove(path)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (v *aferoVolume) Mkdir(name string, perm os.FileMode) error {
	n, err := splitName(name)
	if err != nil {
		return err
	}
	return v.fs.Mkdir(n)
}

func (v *aferoVolume) MkdirAll(path string, perm os.FileMode) error {
	err := v.Mkdir(path, perm)
	if errors.Is(err, ErrAlreadyExists) {
		return nil
	}
	return err
}

func (v *aferoVolume) Stat(name string) (os.FileInfo, error) {
	n, err := splitName(name)
	if err != nil {
		return nil, err
	}
	if n == "" {
		return dirInfo{name: v.fs.Path()}, nil
	}

	dir, slot, err := v.fs.lookup(v.fs.curDir, n)
	if err != nil {
		return nil, err
	}
	return dir.entries[slot].FileInfo(), nil
}

// Renaming entries is not part of the on-disk contract.
func (v *aferoVolume) Rename(oldname, newname string) error {
	return checkpoint.Wrap(syscall.EPERM, fmt.Errorf("rename %q", oldname))
}

// The format has no permission or ownership bits.

func (v *aferoVolume) Chmod(name string, mode os.FileMode) error {
	return checkpoint.From(syscall.EPERM)
}

func (v *aferoVolume) Chown(name string, uid, gid int) error {
	return checkpoint.From(syscall.EPERM)
}

func (v *aferoVolume) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return checkpoint.From(syscall.EPERM)
}

// splitName reduces an afero path to a single component relative to the
// current directory.
func splitName(name string) (string, error) {
	trimmed := strings.Trim(name, "/")
	if trimmed == "." {
		trimmed = ""
	}
	if strings.Contains(trimmed, "/") {
		return "", checkpoint.Wrap(fmt.Errorf("nested path %q is not supported", name), ErrNotFound)
	}
	return trimmed, nil
}
