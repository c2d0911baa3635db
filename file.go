package fatkit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/fatkit/fatkit/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing an open file.
var (
	ErrReadFile  = errors.New("could not read file completely")
	ErrSeekFile  = errors.New("could not seek inside of the file")
	ErrReadDir   = errors.New("could not read the directory")
	ErrWriteFile = errors.New("could not write the file")
)

// volume provides all methods needed from a mounted file system for File.
// It mainly exists to be able to mock the Fs in tests.
// Generated mock using mockgen:
//
//	mockgen -source=file.go -destination=volume_mock.go -package fatkit
type volume interface {
	readFileAt(first fatEntry, fileSize, offset, readSize int64) ([]byte, error)
	readDirEntries(block uint32) ([]os.FileInfo, error)
	commitFile(dirBlock uint32, name string, data []byte) error
	maxFileSize() int64
}

// File is an open file or directory handle implementing afero.File. Writes
// collect in memory and are committed as one full overwrite on Sync or
// Close, which keeps the on-disk write semantics of WriteFile.
type File struct {
	fs   volume
	name string

	isDirectory bool
	writable    bool

	// dirBlock is the block of the directory holding the entry; for an
	// open directory, block is its own directory block.
	dirBlock uint32
	block    uint32

	firstBlock fatEntry
	stat       os.FileInfo
	offset     int64

	pending []byte
	dirty   bool
}

// size returns the current logical size, including unsynced writes.
func (f *File) size() int64 {
	if f.pending != nil {
		return int64(len(f.pending))
	}
	if f.stat == nil {
		return 0
	}
	return f.stat.Size()
}

// load materializes the file content for buffered writes.
func (f *File) load() error {
	if f.pending != nil {
		return nil
	}
	if f.size() == 0 {
		f.pending = []byte{}
		return nil
	}
	data, err := f.fs.readFileAt(f.firstBlock, f.size(), 0, f.size())
	if err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	f.pending = data
	return nil
}

// Close commits pending writes and resets the handle.
func (f *File) Close() error {
	var err error
	if f.dirty {
		err = f.fs.commitFile(f.dirBlock, f.name, f.pending)
	}

	f.fs = nil
	f.name = ""
	f.isDirectory = false
	f.writable = false
	f.dirBlock = 0
	f.block = 0
	f.firstBlock = 0
	f.stat = nil
	f.offset = 0
	f.pending = nil
	f.dirty = false

	return checkpoint.Wrap(err, ErrWriteFile)
}

func (f *File) Read(p []byte) (n int, err error) {
	if p == nil {
		return 0, nil
	}

	// Reading a file if the size has been already reached makes no sense.
	if f.size() <= f.offset {
		return 0, io.EOF
	}

	n, err = f.ReadAt(p, f.offset)

	// Seek even if an error occurred, errors from reading win over seek
	// errors.
	_, seekErr := f.Seek(int64(n), io.SeekCurrent)
	if err != nil {
		return n, err
	}
	if seekErr != nil {
		return n, checkpoint.Wrap(seekErr, ErrReadFile)
	}
	return n, nil
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if p == nil {
		return 0, nil
	}

	// Reading over the end makes no sense.
	if f.size() <= off {
		return 0, io.EOF
	}

	if f.pending != nil {
		return copy(p, f.pending[off:]), nil
	}

	data, err := f.fs.readFileAt(f.firstBlock, f.size(), off, int64(len(p)))
	if data != nil {
		copy(p, data)
	}
	if err != nil {
		return len(data), checkpoint.Wrap(err, ErrReadFile)
	}
	return len(data), nil
}

// Seek jumps to a specific offset in the file. This affects all Read and
// Write operations except ReadAt and WriteAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.size() + offset
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 || offset > f.size() {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (n int, err error) {
	n, err = f.WriteAt(p, f.offset)
	if err != nil {
		return n, err
	}
	f.offset += int64(n)
	return n, nil
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	if !f.writable || f.isDirectory {
		return 0, checkpoint.Wrap(syscall.EPERM, ErrWriteFile)
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, ErrWriteFile)
	}

	if err := f.load(); err != nil {
		return 0, err
	}

	end := off + int64(len(p))
	if end > f.fs.maxFileSize() {
		return 0, checkpoint.Wrap(fmt.Errorf("%d bytes exceed the maximum file size", end), ErrTooLarge)
	}
	if end > int64(len(f.pending)) {
		grown := make([]byte, end)
		copy(grown, f.pending)
		f.pending = grown
	}
	copy(f.pending[off:end], p)
	f.dirty = true
	return len(p), nil
}

func (f *File) Name() string {
	return f.name
}

// Readdir reads the content of an open directory.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.isDirectory {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	content, err := f.fs.readDirEntries(f.block)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	end := len(content)

	if int64(len(content)) < f.offset+int64(count) {
		count = len(content) - int(f.offset)
		err = io.EOF
	}

	if count >= 0 {
		end = int(f.offset) + count
	}

	content = content[f.offset:end]

	if count > 0 {
		f.offset += int64(count)
	} else if count < 0 {
		f.offset = int64(end)
	}

	return content, err
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil && err != io.EOF {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}
	return names, err
}

func (f *File) Stat() (os.FileInfo, error) {
	return f.stat, nil
}

// Sync commits pending writes without closing the handle.
func (f *File) Sync() error {
	if !f.dirty {
		return nil
	}
	if err := f.fs.commitFile(f.dirBlock, f.name, f.pending); err != nil {
		return checkpoint.Wrap(err, ErrWriteFile)
	}
	f.dirty = false
	return nil
}

// Truncate cuts the file down to size. Growing a file this way is not
// supported.
func (f *File) Truncate(size int64) error {
	if !f.writable || f.isDirectory {
		return checkpoint.Wrap(syscall.EPERM, ErrWriteFile)
	}
	if size > f.size() {
		return checkpoint.Wrap(fmt.Errorf("%d to %d bytes", f.size(), size), ErrCannotGrow)
	}
	if size == f.size() {
		return nil
	}

	if err := f.load(); err != nil {
		return err
	}
	f.pending = f.pending[:size]
	f.dirty = true
	if f.offset > size {
		f.offset = size
	}
	return nil
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}
