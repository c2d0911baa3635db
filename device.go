package fatkit

import (
	"fmt"
	"os"

	"github.com/fatkit/fatkit/checkpoint"
	"github.com/spf13/afero"
)

// device provides random access to the image in whole blocks. The image is
// reached through an afero.Fs so tests can run against an in-memory host.
type device struct {
	file        afero.File
	blockSize   int
	totalBlocks uint32
}

// openDevice opens the image read-write and derives the block count from the
// host file length. The length must be a whole number of blocks.
func openDevice(fsys afero.Fs, path string, blockSize int) (*device, error) {
	file, err := fsys.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrIO)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, checkpoint.Wrap(err, ErrIO)
	}

	if info.Size()%int64(blockSize) != 0 {
		file.Close()
		return nil, checkpoint.Wrap(fmt.Errorf("image length %d is not a multiple of the block size %d", info.Size(), blockSize), ErrIncompatibleImage)
	}

	return &device{
		file:        file,
		blockSize:   blockSize,
		totalBlocks: uint32(info.Size() / int64(blockSize)),
	}, nil
}

// readBlock fills buf with block n. buf must be exactly one block long and a
// short read is a failure.
func (d *device) readBlock(n uint32, buf []byte) error {
	if err := d.check(n, buf); err != nil {
		return err
	}

	read, err := d.file.ReadAt(buf, int64(n)*int64(d.blockSize))
	if err != nil {
		return checkpoint.Wrap(fmt.Errorf("read of block %d: %w", n, err), ErrIO)
	}
	if read != d.blockSize {
		return checkpoint.Wrap(fmt.Errorf("short read of block %d: %d of %d bytes", n, read, d.blockSize), ErrIO)
	}
	return nil
}

// writeBlock writes buf as block n. buf must be exactly one block long and a
// short write is a failure.
func (d *device) writeBlock(n uint32, buf []byte) error {
	if err := d.check(n, buf); err != nil {
		return err
	}

	written, err := d.file.WriteAt(buf, int64(n)*int64(d.blockSize))
	if err != nil {
		return checkpoint.Wrap(err, ErrIO)
	}
	if written != d.blockSize {
		return checkpoint.Wrap(fmt.Errorf("short write of block %d: %d of %d bytes", n, written, d.blockSize), ErrIO)
	}
	return nil
}

func (d *device) check(n uint32, buf []byte) error {
	if d.file == nil {
		return checkpoint.From(ErrNotMounted)
	}
	if n >= d.totalBlocks {
		return checkpoint.Wrap(fmt.Errorf("block %d is outside the image (%d blocks)", n, d.totalBlocks), ErrIO)
	}
	if len(buf) != d.blockSize {
		return checkpoint.Wrap(fmt.Errorf("buffer of %d bytes for a %d byte block", len(buf), d.blockSize), ErrIO)
	}
	return nil
}

func (d *device) close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return checkpoint.Wrap(err, ErrIO)
}
