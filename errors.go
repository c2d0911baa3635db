package fatkit

import "errors"

// These errors describe the failure classes of the file system. Errors of
// the volume operations can be matched against them with errors.Is. Invalid
// FormatOptions other than an overlong label, and the unsupported operations
// of the afero view (syscall.EPERM), carry none of these classes.
var (
	// ErrIO is an underlying host I/O error or a short transfer.
	ErrIO = errors.New("i/o failure on the image device")

	// ErrBadSignature means block 0 does not carry a MYFATFS boot sector.
	ErrBadSignature = errors.New("not a MYFATFS image")

	// ErrIncompatibleImage means the boot sector is valid but does not
	// describe the host file it was read from.
	ErrIncompatibleImage = errors.New("boot sector does not match the image")

	// ErrNotFound means the name is absent from the current directory.
	ErrNotFound = errors.New("no such file or directory")

	// ErrAlreadyExists means the directory already holds the name.
	ErrAlreadyExists = errors.New("file or directory already exists")

	// ErrNotAFile means the entry exists but is not a regular file.
	ErrNotAFile = errors.New("not a file")

	// ErrNotADirectory means the entry exists but is not a directory.
	ErrNotADirectory = errors.New("not a directory")

	// ErrNameTooLong means the name does not fit a directory entry.
	ErrNameTooLong = errors.New("name too long")

	// ErrDirectoryFull means the directory block has no free slot left.
	ErrDirectoryFull = errors.New("directory is full")

	// ErrDirectoryNotEmpty means a directory still holds entries besides
	// its two seed entries.
	ErrDirectoryNotEmpty = errors.New("directory is not empty")

	// ErrNoSpace means the allocation table has no free entry left.
	ErrNoSpace = errors.New("no free space available")

	// ErrTooLarge means the payload exceeds MaxFileBlocks blocks.
	ErrTooLarge = errors.New("file too large")

	// ErrCannotGrow means truncate was asked to extend a file.
	ErrCannotGrow = errors.New("truncate cannot grow a file")

	// ErrCorruptChain means a block chain did not terminate where the
	// recorded sizes say it must.
	ErrCorruptChain = errors.New("corrupt block chain")

	// ErrNotMounted means the operation needs a mounted image.
	ErrNotMounted = errors.New("no image mounted")
)
