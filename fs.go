// Package fatkit implements a small FAT-style file system stored inside a
// single image file. The on-disk layout is a boot sector in block 0, a
// 16-bit allocation table behind it, one root directory block and a data
// area. Images are reached through an afero.Fs, so they can live on the real
// disk as well as on an in-memory filesystem in tests.
//
// An Fs value is not safe for concurrent use, operations run one at a time.
package fatkit

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatkit/fatkit/checkpoint"
	"github.com/spf13/afero"
)

// FormatOptions configures a fresh image. The zero value formats a 64 MiB
// image with 1 KiB blocks and no volume label.
type FormatOptions struct {
	// TotalSize is the image size in bytes, between 1 MiB and 1 GiB and a
	// whole number of blocks.
	TotalSize int64

	// BlockSize is the bytes per block, a power of two between 512 and
	// 16 KiB.
	BlockSize int

	// VolumeLabel is stored in the boot sector, at most 15 bytes.
	VolumeLabel string

	// Password is not used by Format: a fresh image holds no file content
	// and the image records no password. The XOR mask for file content is
	// applied by mounting with WithPassword.
	Password string
}

func (o FormatOptions) withDefaults() FormatOptions {
	if o.TotalSize == 0 {
		o.TotalSize = DefaultDiskSize
	}
	if o.BlockSize == 0 {
		o.BlockSize = DefaultBlockSize
	}
	return o
}

func (o FormatOptions) validate() error {
	if o.BlockSize < 512 || o.BlockSize > 16*1024 || o.BlockSize&(o.BlockSize-1) != 0 {
		return checkpoint.From(fmt.Errorf("block size %d must be a power of two between 512 and 16384", o.BlockSize))
	}
	if o.TotalSize < 1024*1024 || o.TotalSize > 1024*1024*1024 {
		return checkpoint.From(fmt.Errorf("image size %d must be between 1 MiB and 1 GiB", o.TotalSize))
	}
	if o.TotalSize%int64(o.BlockSize) != 0 {
		return checkpoint.From(fmt.Errorf("image size %d is not a multiple of the block size %d", o.TotalSize, o.BlockSize))
	}
	if len(o.VolumeLabel) > 15 {
		return checkpoint.Wrap(fmt.Errorf("volume label %q exceeds 15 bytes", o.VolumeLabel), ErrNameTooLong)
	}
	return nil
}

// Option configures a mount.
type Option func(*Fs)

// WithPassword applies the XOR mask of a password-formatted image. Mounting
// with a wrong password succeeds, metadata stays readable, but file content
// decodes to garbage.
func WithPassword(password string) Option {
	return func(fs *Fs) {
		fs.mask = newBlockMask(password)
	}
}

// Fs is a mounted image. It holds the open device, the decoded boot sector,
// the allocation table mirror and the current directory.
type Fs struct {
	dev  *device
	boot BootSector
	fat  *fatTable
	mask *blockMask

	curDir    uint32
	pathParts []string
}

// Format creates path on fsys as a freshly formatted image: the file is
// written full of zeros, then boot sector, allocation table and an empty
// root directory follow. The root directory gets no "." and ".." entries,
// only subdirectories carry them.
func Format(fsys afero.Fs, path string, opts FormatOptions) error {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return err
	}

	file, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return checkpoint.Wrap(err, ErrIO)
	}

	zeros := make([]byte, opts.BlockSize)
	totalBlocks := uint32(opts.TotalSize / int64(opts.BlockSize))
	for i := uint32(0); i < totalBlocks; i++ {
		if _, err := file.Write(zeros); err != nil {
			file.Close()
			return checkpoint.Wrap(err, ErrIO)
		}
	}
	if err := file.Close(); err != nil {
		return checkpoint.Wrap(err, ErrIO)
	}

	dev, err := openDevice(fsys, path, opts.BlockSize)
	if err != nil {
		return err
	}
	defer dev.close()

	boot := newBootSector(totalBlocks, opts.BlockSize, opts.VolumeLabel, epochNow())
	raw, err := encodeBootSector(&boot, opts.BlockSize)
	if err != nil {
		return err
	}
	if err := dev.writeBlock(bootBlock, raw); err != nil {
		return err
	}

	fat := newFATTable(dev, &boot)
	if err := fat.flush(); err != nil {
		return err
	}

	root, err := newDirectory(opts.BlockSize).encode(opts.BlockSize)
	if err != nil {
		return err
	}
	return dev.writeBlock(boot.RootDirBlock, root)
}

// Mount opens the image at path and returns a handle with the root as
// current directory. The boot sector signature gates mounting, and the
// recorded geometry must cover the host file exactly.
func Mount(fsys afero.Fs, path string, opts ...Option) (*Fs, error) {
	file, err := fsys.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrIO)
	}

	// The boot record fits well within the smallest supported block, read
	// that much before the real block size is known.
	probe := make([]byte, 512)
	if _, err := file.ReadAt(probe, 0); err != nil {
		file.Close()
		return nil, checkpoint.Wrap(fmt.Errorf("reading the boot sector: %w", err), ErrBadSignature)
	}

	boot, err := decodeBootSector(probe)
	if err != nil {
		file.Close()
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, checkpoint.Wrap(err, ErrIO)
	}
	if err := boot.validate(info.Size()); err != nil {
		file.Close()
		return nil, err
	}

	dev := &device{
		file:        file,
		blockSize:   int(boot.BlockSize),
		totalBlocks: boot.TotalBlocks,
	}

	fat, err := loadFATTable(dev, &boot)
	if err != nil {
		dev.close()
		return nil, err
	}

	fs := &Fs{
		dev:    dev,
		boot:   boot,
		fat:    fat,
		curDir: boot.RootDirBlock,
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs, nil
}

// Unmount closes the device and drops the table mirror. The mirror is
// persisted after every mutating operation, so there is nothing to flush.
func (fs *Fs) Unmount() error {
	if err := fs.mounted(); err != nil {
		return err
	}
	err := fs.dev.close()
	fs.dev = nil
	fs.fat = nil
	fs.pathParts = nil
	return err
}

func (fs *Fs) mounted() error {
	if fs == nil || fs.dev == nil || fs.dev.file == nil {
		return checkpoint.From(ErrNotMounted)
	}
	return nil
}

// Label returns the volume label.
func (fs *Fs) Label() string {
	return fs.boot.Label()
}

// Path returns the path of the current directory, "/" for the root.
func (fs *Fs) Path() string {
	return "/" + strings.Join(fs.pathParts, "/")
}

// FreeBlocks returns the number of free entries in the allocation table.
func (fs *Fs) FreeBlocks() uint32 {
	if fs.fat == nil {
		return 0
	}
	return fs.fat.freeCount()
}

// VolumeInfo summarizes a mounted image.
type VolumeInfo struct {
	Label       string
	TotalBlocks uint32
	FreeBlocks  uint32
	FATBlocks   uint32
	BlockSize   int
	Created     time.Time
}

// Info returns the volume summary.
func (fs *Fs) Info() (VolumeInfo, error) {
	if err := fs.mounted(); err != nil {
		return VolumeInfo{}, err
	}
	return VolumeInfo{
		Label:       fs.boot.Label(),
		TotalBlocks: fs.boot.TotalBlocks,
		FreeBlocks:  fs.fat.freeCount(),
		FATBlocks:   fs.boot.FATBlocks,
		BlockSize:   fs.dev.blockSize,
		Created:     epochTime(fs.boot.CreatedTime),
	}, nil
}

// ReadDir lists the current directory in slot order.
func (fs *Fs) ReadDir() ([]os.FileInfo, error) {
	if err := fs.mounted(); err != nil {
		return nil, err
	}
	return fs.readDirEntries(fs.curDir)
}

// CreateFile adds an empty file to the current directory. No block is
// allocated, empty files have no chain.
func (fs *Fs) CreateFile(name string) error {
	if err := fs.mounted(); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}

	dir, err := fs.loadDir(fs.curDir)
	if err != nil {
		return err
	}
	if dir.find(name) >= 0 {
		return checkpoint.Wrap(fmt.Errorf("%q", name), ErrAlreadyExists)
	}

	if _, err := dir.insert(newEntry(name, TypeFile, uint16(fatEOF), epochNow())); err != nil {
		return err
	}
	return fs.storeDir(fs.curDir, dir)
}

// DeleteFile removes a file from the current directory and releases its
// chain. The chain is released before the entry is cleared.
func (fs *Fs) DeleteFile(name string) error {
	if err := fs.mounted(); err != nil {
		return err
	}

	dir, slot, err := fs.lookup(fs.curDir, name)
	if err != nil {
		return err
	}
	entry := &dir.entries[slot]
	if entry.Type != TypeFile {
		return checkpoint.Wrap(fmt.Errorf("%q", name), ErrNotAFile)
	}

	if !fatEntry(entry.FirstBlock).IsEOF() {
		if err := fs.fat.freeChain(entry.FirstBlock); err != nil {
			return err
		}
	}

	dir.remove(slot)
	return fs.storeDir(fs.curDir, dir)
}

// WriteFile replaces the content of a file in the current directory. This is
// a full overwrite, not an append: the old chain is released first, then a
// new chain is built block by block. When space runs out mid-write the new
// partial chain is released again, but the old content is already gone, the
// file ends up empty.
func (fs *Fs) WriteFile(name string, data []byte) error {
	if err := fs.mounted(); err != nil {
		return err
	}
	return fs.commitFile(fs.curDir, name, data)
}

// ReadFile returns the whole content of a file in the current directory.
func (fs *Fs) ReadFile(name string) ([]byte, error) {
	if err := fs.mounted(); err != nil {
		return nil, err
	}

	dir, slot, err := fs.lookup(fs.curDir, name)
	if err != nil {
		return nil, err
	}
	entry := &dir.entries[slot]
	if entry.Type != TypeFile {
		return nil, checkpoint.Wrap(fmt.Errorf("%q", name), ErrNotAFile)
	}
	if entry.FileSize == 0 {
		return []byte{}, nil
	}
	return fs.readFileAt(fatEntry(entry.FirstBlock), int64(entry.FileSize), 0, int64(entry.FileSize))
}

// TruncateFile shrinks a file in the current directory to size bytes.
// Growing is not supported, use WriteFile to extend a file.
func (fs *Fs) TruncateFile(name string, size uint32) error {
	if err := fs.mounted(); err != nil {
		return err
	}
	return fs.truncateAt(fs.curDir, name, size)
}

// Mkdir creates a subdirectory in the current directory. Its block is
// allocated and seeded with "." and ".." before the parent entry appears.
func (fs *Fs) Mkdir(name string) error {
	if err := fs.mounted(); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}

	dir, err := fs.loadDir(fs.curDir)
	if err != nil {
		return err
	}
	if dir.find(name) >= 0 {
		return checkpoint.Wrap(fmt.Errorf("%q", name), ErrAlreadyExists)
	}
	if dir.freeSlot() < 0 {
		return checkpoint.From(ErrDirectoryFull)
	}

	block, err := fs.fat.allocate()
	if err != nil {
		return err
	}

	now := epochNow()
	sub := newSubdir(block, uint16(fs.curDir), fs.dev.blockSize, now)
	if err := fs.storeDir(uint32(block), sub); err != nil {
		fs.fat.freeChain(block)
		return err
	}

	if _, err := dir.insert(newEntry(name, TypeDirectory, block, now)); err != nil {
		fs.fat.freeChain(block)
		return err
	}
	return fs.storeDir(fs.curDir, dir)
}

// Rmdir removes an empty subdirectory from the current directory. A
// directory holding anything besides its "." and ".." seeds is rejected.
func (fs *Fs) Rmdir(name string) error {
	if err := fs.mounted(); err != nil {
		return err
	}
	if name == "." || name == ".." {
		return checkpoint.Wrap(fmt.Errorf("refusing to remove %q", name), ErrDirectoryNotEmpty)
	}

	dir, slot, err := fs.lookup(fs.curDir, name)
	if err != nil {
		return err
	}
	entry := &dir.entries[slot]
	if !entry.IsDir() {
		return checkpoint.Wrap(fmt.Errorf("%q", name), ErrNotADirectory)
	}

	sub, err := fs.loadDir(uint32(entry.FirstBlock))
	if err != nil {
		return err
	}
	if sub.used() > 2 {
		return checkpoint.Wrap(fmt.Errorf("%q", name), ErrDirectoryNotEmpty)
	}

	if err := fs.fat.freeChain(entry.FirstBlock); err != nil {
		return err
	}
	dir.remove(slot)
	return fs.storeDir(fs.curDir, dir)
}

// ChangeDir moves the current directory by a single component: a
// subdirectory name, ".." through the stored parent entry, "." as a no-op
// or "/" back to the root.
func (fs *Fs) ChangeDir(name string) error {
	if err := fs.mounted(); err != nil {
		return err
	}

	switch name {
	case ".":
		return nil
	case "", "/":
		fs.curDir = fs.boot.RootDirBlock
		fs.pathParts = nil
		return nil
	}

	dir, slot, err := fs.lookup(fs.curDir, name)
	if err != nil {
		return err
	}
	entry := &dir.entries[slot]
	if !entry.IsDir() {
		return checkpoint.Wrap(fmt.Errorf("%q", name), ErrNotADirectory)
	}

	fs.curDir = uint32(entry.FirstBlock)
	if name == ".." {
		if len(fs.pathParts) > 0 {
			fs.pathParts = fs.pathParts[:len(fs.pathParts)-1]
		}
	} else {
		fs.pathParts = append(fs.pathParts, name)
	}
	return nil
}

// lookup loads a directory block and locates name in it.
func (fs *Fs) lookup(dirBlock uint32, name string) (*directory, int, error) {
	dir, err := fs.loadDir(dirBlock)
	if err != nil {
		return nil, -1, err
	}
	slot := dir.find(name)
	if slot < 0 {
		return nil, -1, checkpoint.Wrap(fmt.Errorf("%q", name), ErrNotFound)
	}
	return dir, slot, nil
}

func (fs *Fs) loadDir(block uint32) (*directory, error) {
	raw := make([]byte, fs.dev.blockSize)
	if err := fs.dev.readBlock(block, raw); err != nil {
		return nil, err
	}
	return decodeDirectory(raw, fs.dev.blockSize)
}

func (fs *Fs) storeDir(block uint32, dir *directory) error {
	raw, err := dir.encode(fs.dev.blockSize)
	if err != nil {
		return err
	}
	return fs.dev.writeBlock(block, raw)
}

// readDirEntries lists the non-empty slots of a directory block.
func (fs *Fs) readDirEntries(block uint32) ([]os.FileInfo, error) {
	dir, err := fs.loadDir(block)
	if err != nil {
		return nil, err
	}

	infos := make([]os.FileInfo, 0, dir.used())
	for i := range dir.entries {
		if !dir.entries[i].IsEmpty() {
			infos = append(infos, dir.entries[i].FileInfo())
		}
	}
	return infos, nil
}

// commitFile is the full-overwrite write on an explicit directory block.
func (fs *Fs) commitFile(dirBlock uint32, name string, data []byte) error {
	dir, slot, err := fs.lookup(dirBlock, name)
	if err != nil {
		return err
	}
	entry := &dir.entries[slot]
	if entry.Type != TypeFile {
		return checkpoint.Wrap(fmt.Errorf("%q", name), ErrNotAFile)
	}

	blockSize := fs.dev.blockSize
	if int64(len(data)) > int64(MaxFileBlocks)*int64(blockSize) {
		return checkpoint.Wrap(fmt.Errorf("%d bytes exceed %d blocks", len(data), MaxFileBlocks), ErrTooLarge)
	}

	if !fatEntry(entry.FirstBlock).IsEOF() {
		if err := fs.fat.freeChain(entry.FirstBlock); err != nil {
			return err
		}
	}

	first := fatEOF
	prev := fatEOF
	chunk := make([]byte, blockSize)
	for off := 0; off < len(data); off += blockSize {
		block, err := fs.fat.allocate()
		if err != nil {
			fs.rollbackChain(first)
			return err
		}
		if first.IsEOF() {
			first = fatEntry(block)
		}
		if !prev.IsEOF() {
			fs.fat.link(uint16(prev), block)
		}

		n := copy(chunk, data[off:])
		for i := n; i < blockSize; i++ {
			chunk[i] = 0
		}
		if err := fs.writeDataBlock(uint32(block), chunk); err != nil {
			fs.rollbackChain(first)
			return err
		}
		prev = fatEntry(block)
	}

	if !prev.IsEOF() {
		fs.fat.setEOF(uint16(prev))
	}
	if err := fs.fat.flush(); err != nil {
		return err
	}

	entry.FirstBlock = uint16(first)
	entry.FileSize = uint32(len(data))
	entry.ModifiedTime = epochNow()
	return fs.storeDir(dirBlock, dir)
}

// rollbackChain releases a partially built chain after a failed write. The
// directory entry is untouched, the caller reports the original error.
func (fs *Fs) rollbackChain(first fatEntry) {
	if !first.IsEOF() {
		fs.fat.freeChain(uint16(first))
	}
}

// truncateAt shrinks a file on an explicit directory block.
func (fs *Fs) truncateAt(dirBlock uint32, name string, size uint32) error {
	dir, slot, err := fs.lookup(dirBlock, name)
	if err != nil {
		return err
	}
	entry := &dir.entries[slot]
	if entry.Type != TypeFile {
		return checkpoint.Wrap(fmt.Errorf("%q", name), ErrNotAFile)
	}

	if size > entry.FileSize {
		return checkpoint.Wrap(fmt.Errorf("%d to %d bytes", entry.FileSize, size), ErrCannotGrow)
	}
	if size == entry.FileSize {
		return nil
	}

	blockSize := uint32(fs.dev.blockSize)
	blocksNeeded := (size + blockSize - 1) / blockSize

	if blocksNeeded == 0 {
		if !fatEntry(entry.FirstBlock).IsEOF() {
			if err := fs.fat.freeChain(entry.FirstBlock); err != nil {
				return err
			}
		}
		entry.FirstBlock = uint16(fatEOF)
	} else {
		lastKept, err := fs.fat.walk(entry.FirstBlock, int(blocksNeeded)-1)
		if err != nil {
			return err
		}
		if lastKept.IsMarker() {
			return checkpoint.Wrap(fmt.Errorf("chain of %q ends before block %d", name, blocksNeeded), ErrCorruptChain)
		}

		firstDrop := fs.fat.next(uint16(lastKept))
		fs.fat.setEOF(uint16(lastKept))
		if !firstDrop.IsMarker() {
			if err := fs.fat.freeChain(uint16(firstDrop)); err != nil {
				return err
			}
		} else if err := fs.fat.flush(); err != nil {
			return err
		}
	}

	entry.FileSize = size
	entry.ModifiedTime = epochNow()
	return fs.storeDir(dirBlock, dir)
}

// readFileAt reads up to readSize bytes of a chain starting at the given
// offset. Reads beyond fileSize are clamped. A chain that ends before the
// recorded size is satisfied is corrupt.
func (fs *Fs) readFileAt(first fatEntry, fileSize, offset, readSize int64) ([]byte, error) {
	if err := fs.mounted(); err != nil {
		return nil, err
	}
	if offset >= fileSize || readSize <= 0 {
		return []byte{}, nil
	}
	if readSize > fileSize-offset {
		readSize = fileSize - offset
	}

	blockSize := int64(fs.dev.blockSize)
	cur := first
	for skip := offset / blockSize; skip > 0; skip-- {
		if cur.IsMarker() {
			return nil, checkpoint.Wrap(fmt.Errorf("chain ends inside the file"), ErrCorruptChain)
		}
		cur = fs.fat.next(uint16(cur))
	}

	out := make([]byte, 0, readSize)
	buf := make([]byte, blockSize)
	pos := offset % blockSize
	remaining := readSize

	for hops := 0; remaining > 0; hops++ {
		if hops > MaxFileBlocks || cur.IsMarker() || uint32(cur) >= fs.dev.totalBlocks {
			return nil, checkpoint.Wrap(fmt.Errorf("chain ends after %d bytes, %d missing", len(out), remaining), ErrCorruptChain)
		}

		if err := fs.readDataBlock(uint32(cur), buf); err != nil {
			return nil, err
		}

		n := blockSize - pos
		if n > remaining {
			n = remaining
		}
		out = append(out, buf[pos:pos+n]...)
		pos = 0
		remaining -= n
		cur = fs.fat.next(uint16(cur))
	}
	return out, nil
}

// writeDataBlock writes one block of file content, masked when a password
// is set.
func (fs *Fs) writeDataBlock(block uint32, buf []byte) error {
	if fs.mask != nil {
		fs.mask.apply(block, buf)
	}
	return fs.dev.writeBlock(block, buf)
}

// readDataBlock reads one block of file content, unmasked when a password
// is set.
func (fs *Fs) readDataBlock(block uint32, buf []byte) error {
	if err := fs.dev.readBlock(block, buf); err != nil {
		return err
	}
	if fs.mask != nil {
		fs.mask.apply(block, buf)
	}
	return nil
}

// maxFileSize returns the byte limit of a single file on this volume.
func (fs *Fs) maxFileSize() int64 {
	return int64(MaxFileBlocks) * int64(fs.dev.blockSize)
}

// validateName rejects names that do not fit a directory entry.
func validateName(name string) error {
	if name == "" || len(name) >= MaxFilenameSize {
		return checkpoint.Wrap(fmt.Errorf("%q", name), ErrNameTooLong)
	}
	return nil
}
