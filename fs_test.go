package fatkit

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/afero"
)

const testImage = "test.img"

// newTestFs formats and mounts a small image on an in-memory host.
func newTestFs(t *testing.T, opts FormatOptions) (*Fs, afero.Fs) {
	t.Helper()

	if opts.TotalSize == 0 {
		opts.TotalSize = 1024 * 1024
	}

	host := afero.NewMemMapFs()
	if err := Format(host, testImage, opts); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var mountOpts []Option
	if opts.Password != "" {
		mountOpts = append(mountOpts, WithPassword(opts.Password))
	}
	fs, err := Mount(host, testImage, mountOpts...)
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	t.Cleanup(func() { fs.Unmount() })

	return fs, host
}

func TestFormatMountRemount(t *testing.T) {
	host := afero.NewMemMapFs()
	if err := Format(host, testImage, FormatOptions{TotalSize: 1024 * 1024, VolumeLabel: "MYVOLUME"}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Mount twice in a row, the root must list empty both times.
	for i := 0; i < 2; i++ {
		fs, err := Mount(host, testImage)
		if err != nil {
			t.Fatalf("Mount() #%d error = %v", i+1, err)
		}
		if fs.Label() != "MYVOLUME" {
			t.Errorf("Label() = %q, want %q", fs.Label(), "MYVOLUME")
		}
		if fs.Path() != "/" {
			t.Errorf("Path() = %q, want %q", fs.Path(), "/")
		}

		entries, err := fs.ReadDir()
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("root lists %d entries after format, want 0", len(entries))
		}

		if err := fs.Unmount(); err != nil {
			t.Fatalf("Unmount() error = %v", err)
		}
	}
}

func TestFormatOptionBounds(t *testing.T) {
	tests := []struct {
		name    string
		opts    FormatOptions
		wantErr bool
	}{
		{name: "defaults", opts: FormatOptions{TotalSize: 1024 * 1024}},
		{name: "small blocks", opts: FormatOptions{TotalSize: 1024 * 1024, BlockSize: 512}},
		{name: "image too small", opts: FormatOptions{TotalSize: 512 * 1024}, wantErr: true},
		{name: "block size not a power of two", opts: FormatOptions{TotalSize: 1024 * 1024, BlockSize: 1000}, wantErr: true},
		{name: "block size too small", opts: FormatOptions{TotalSize: 1024 * 1024, BlockSize: 256}, wantErr: true},
		{name: "label too long", opts: FormatOptions{TotalSize: 1024 * 1024, VolumeLabel: "0123456789abcdef"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := afero.NewMemMapFs()
			err := Format(host, testImage, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("Format() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMountBadSignature(t *testing.T) {
	host := afero.NewMemMapFs()
	junk := bytes.Repeat([]byte("This is no image."), 100)
	if err := afero.WriteFile(host, testImage, junk, 0644); err != nil {
		t.Fatalf("could not write the junk file: %v", err)
	}

	_, err := Mount(host, testImage)
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("Mount() error = %v, want ErrBadSignature", err)
	}
}

func TestMountIncompatibleImage(t *testing.T) {
	host := afero.NewMemMapFs()
	if err := Format(host, testImage, FormatOptions{TotalSize: 1024 * 1024}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	// Cut the host file in half, the recorded geometry no longer covers it.
	raw, err := afero.ReadFile(host, testImage)
	if err != nil {
		t.Fatalf("could not read the image: %v", err)
	}
	if err := afero.WriteFile(host, testImage, raw[:len(raw)/2], 0644); err != nil {
		t.Fatalf("could not shrink the image: %v", err)
	}

	_, err = Mount(host, testImage)
	if !errors.Is(err, ErrIncompatibleImage) {
		t.Errorf("Mount() error = %v, want ErrIncompatibleImage", err)
	}
}

func TestMountMissingFile(t *testing.T) {
	_, err := Mount(afero.NewMemMapFs(), "missing.img")
	if !errors.Is(err, ErrIO) {
		t.Errorf("Mount() error = %v, want ErrIO", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "small file", payload: []byte("Hello, World!")},
		{name: "empty file", payload: []byte{}},
		{name: "exactly one block", payload: bytes.Repeat([]byte{0xAB}, 1024)},
		{name: "one byte over a block", payload: bytes.Repeat([]byte{'x'}, 1025)},
		{name: "several blocks", payload: bytes.Repeat([]byte("0123456789"), 1000)},
		{name: "maximum size", payload: bytes.Repeat([]byte{7}, MaxFileBlocks*1024)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, _ := newTestFs(t, FormatOptions{})

			if err := fs.CreateFile("data.bin"); err != nil {
				t.Fatalf("CreateFile() error = %v", err)
			}
			if err := fs.WriteFile("data.bin", tt.payload); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			got, err := fs.ReadFile("data.bin")
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("ReadFile() returned %d bytes that differ from the %d written", len(got), len(tt.payload))
			}
		})
	}
}

func TestWriteReadListScenario(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})

	if err := fs.CreateFile("a.txt"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	if err := fs.WriteFile("a.txt", []byte("Hello, World!")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := fs.ReadFile("a.txt")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "Hello, World!" {
		t.Errorf("ReadFile() = %q, want %q", got, "Hello, World!")
	}

	entries, err := fs.ReadDir()
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ReadDir() lists %d entries, want 1", len(entries))
	}
	if entries[0].Name() != "a.txt" || entries[0].IsDir() || entries[0].Size() != 13 {
		t.Errorf("entry = %q dir=%v size=%d, want a.txt file size 13", entries[0].Name(), entries[0].IsDir(), entries[0].Size())
	}
}

func TestCreateFileErrors(t *testing.T) {
	longName := string(bytes.Repeat([]byte{'n'}, MaxFilenameSize))

	tests := []struct {
		name    string
		prep    func(fs *Fs) error
		arg     string
		wantErr error
	}{
		{
			name:    "duplicate name",
			prep:    func(fs *Fs) error { return fs.CreateFile("dup") },
			arg:     "dup",
			wantErr: ErrAlreadyExists,
		},
		{
			name:    "name too long",
			prep:    func(fs *Fs) error { return nil },
			arg:     longName,
			wantErr: ErrNameTooLong,
		},
		{
			name:    "empty name",
			prep:    func(fs *Fs) error { return nil },
			arg:     "",
			wantErr: ErrNameTooLong,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, _ := newTestFs(t, FormatOptions{})
			if err := tt.prep(fs); err != nil {
				t.Fatalf("prep error = %v", err)
			}

			err := fs.CreateFile(tt.arg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateDuplicateKeepsSingleEntry(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})

	if err := fs.CreateFile("dup"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	if err := fs.CreateFile("dup"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second CreateFile() error = %v, want ErrAlreadyExists", err)
	}

	entries, err := fs.ReadDir()
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "dup" {
		t.Errorf("directory lists %d entries, want exactly one %q", len(entries), "dup")
	}
}

func TestDirectoryFullOnCreate(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})

	for i := 0; i < dirCapacity(DefaultBlockSize); i++ {
		if err := fs.CreateFile(string(rune('a' + i))); err != nil {
			t.Fatalf("CreateFile() #%d error = %v", i, err)
		}
	}

	err := fs.CreateFile("one-too-many")
	if !errors.Is(err, ErrDirectoryFull) {
		t.Errorf("CreateFile() error = %v, want ErrDirectoryFull", err)
	}
}

func TestDeleteFileFreesBlocks(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})

	before := fs.FreeBlocks()

	if err := fs.CreateFile("victim"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	if err := fs.WriteFile("victim", bytes.Repeat([]byte{1}, 5000)); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if fs.FreeBlocks() != before-5 {
		t.Fatalf("FreeBlocks() = %d after a 5 block write, want %d", fs.FreeBlocks(), before-5)
	}

	if err := fs.DeleteFile("victim"); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	if fs.FreeBlocks() != before {
		t.Errorf("FreeBlocks() = %d after delete, want %d", fs.FreeBlocks(), before)
	}

	if _, err := fs.ReadFile("victim"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile() after delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteFileErrors(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})
	if err := fs.Mkdir("docs"); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	if err := fs.DeleteFile("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteFile(missing) error = %v, want ErrNotFound", err)
	}
	if err := fs.DeleteFile("docs"); !errors.Is(err, ErrNotAFile) {
		t.Errorf("DeleteFile(docs) error = %v, want ErrNotAFile", err)
	}
}

func TestTruncateScenario(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})

	payload := bytes.Repeat([]byte{'A'}, 2049)
	if err := fs.CreateFile("x"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}

	free := fs.FreeBlocks()
	if err := fs.WriteFile("x", payload); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if fs.FreeBlocks() != free-3 {
		t.Fatalf("a 2049 byte file occupies %d blocks, want 3", free-fs.FreeBlocks())
	}

	if err := fs.TruncateFile("x", 500); err != nil {
		t.Fatalf("TruncateFile() error = %v", err)
	}

	got, err := fs.ReadFile("x")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(got, payload[:500]) {
		t.Errorf("ReadFile() after truncate = %d bytes, want the first 500 'A's", len(got))
	}
	if fs.FreeBlocks() != free-1 {
		t.Errorf("truncated file occupies %d blocks, want 1", free-fs.FreeBlocks())
	}
}

func TestTruncateFile(t *testing.T) {
	payload := bytes.Repeat([]byte{'z'}, 3000)

	tests := []struct {
		name       string
		size       uint32
		wantBlocks uint32
		wantErr    error
	}{
		{name: "shrink within the last block", size: 2500, wantBlocks: 3},
		{name: "shrink to a block boundary", size: 2048, wantBlocks: 2},
		{name: "shrink to one block", size: 10, wantBlocks: 1},
		{name: "shrink to empty", size: 0, wantBlocks: 0},
		{name: "same size is a no-op", size: 3000, wantBlocks: 3},
		{name: "growing is rejected", size: 999999, wantBlocks: 3, wantErr: ErrCannotGrow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, _ := newTestFs(t, FormatOptions{})
			if err := fs.CreateFile("f"); err != nil {
				t.Fatalf("CreateFile() error = %v", err)
			}
			free := fs.FreeBlocks()
			if err := fs.WriteFile("f", payload); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			err := fs.TruncateFile("f", tt.size)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TruncateFile() error = %v, want %v", err, tt.wantErr)
			}

			wantSize := tt.size
			if tt.wantErr != nil {
				wantSize = uint32(len(payload))
			}
			got, err := fs.ReadFile("f")
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !bytes.Equal(got, payload[:wantSize]) {
				t.Errorf("content after truncate is %d bytes, want %d", len(got), wantSize)
			}
			if used := free - fs.FreeBlocks(); used != tt.wantBlocks {
				t.Errorf("file occupies %d blocks, want %d", used, tt.wantBlocks)
			}
		})
	}
}

func TestWriteFileTooLarge(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})
	if err := fs.CreateFile("big"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}

	err := fs.WriteFile("big", make([]byte, MaxFileBlocks*1024+1))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("WriteFile() error = %v, want ErrTooLarge", err)
	}
}

func TestWriteFileNoSpaceRollback(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})

	// Fill the data area until fewer than MaxFileBlocks blocks remain.
	filler := make([]byte, MaxFileBlocks*1024)
	for i := 0; fs.FreeBlocks() >= MaxFileBlocks; i++ {
		name := "fill-" + string(rune('a'+i))
		if err := fs.CreateFile(name); err != nil {
			t.Fatalf("CreateFile(%s) error = %v", name, err)
		}
		if err := fs.WriteFile(name, filler); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}

	if err := fs.CreateFile("y"); err != nil {
		t.Fatalf("CreateFile(y) error = %v", err)
	}

	free := fs.FreeBlocks()
	err := fs.WriteFile("y", filler)
	if !errors.Is(err, ErrNoSpace) {
		t.Fatalf("WriteFile(y) error = %v, want ErrNoSpace", err)
	}

	// The partial chain is rolled back and the file stays empty.
	if fs.FreeBlocks() != free {
		t.Errorf("FreeBlocks() = %d after the failed write, want %d", fs.FreeBlocks(), free)
	}
	got, err := fs.ReadFile("y")
	if err != nil {
		t.Fatalf("ReadFile(y) error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadFile(y) = %d bytes after the failed write, want 0", len(got))
	}
}

func TestMkdirSeedsDotEntries(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})

	if err := fs.Mkdir("docs"); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	entries, err := fs.ReadDir()
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "docs" || !entries[0].IsDir() || entries[0].Size() != 0 {
		t.Fatalf("root entry = %+v, want directory docs with size 0", entries[0])
	}

	// Inspect the directory block itself: "." points at the block, ".."
	// at the root.
	dir, slot, err := fs.lookup(fs.curDir, "docs")
	if err != nil {
		t.Fatalf("lookup() error = %v", err)
	}
	block := dir.entries[slot].FirstBlock

	sub, err := fs.loadDir(uint32(block))
	if err != nil {
		t.Fatalf("loadDir() error = %v", err)
	}
	if sub.entries[0].Name() != "." || sub.entries[0].FirstBlock != block {
		t.Errorf("slot 0 = %q -> %d, want \".\" -> %d", sub.entries[0].Name(), sub.entries[0].FirstBlock, block)
	}
	if sub.entries[1].Name() != ".." || uint32(sub.entries[1].FirstBlock) != fs.boot.RootDirBlock {
		t.Errorf("slot 1 = %q -> %d, want \"..\" -> %d", sub.entries[1].Name(), sub.entries[1].FirstBlock, fs.boot.RootDirBlock)
	}
	if sub.count != 2 {
		t.Errorf("entry count = %d, want 2", sub.count)
	}
}

func TestChangeDir(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})

	if err := fs.Mkdir("docs"); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	if err := fs.ChangeDir("docs"); err != nil {
		t.Fatalf("ChangeDir(docs) error = %v", err)
	}
	if fs.Path() != "/docs" {
		t.Errorf("Path() = %q, want %q", fs.Path(), "/docs")
	}

	// Files created here land in the subdirectory, not the root.
	if err := fs.CreateFile("inner.txt"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}

	if err := fs.ChangeDir(".."); err != nil {
		t.Fatalf("ChangeDir(..) error = %v", err)
	}
	if fs.Path() != "/" {
		t.Errorf("Path() = %q after .., want %q", fs.Path(), "/")
	}
	if _, err := fs.ReadFile("inner.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("inner.txt is visible from the root: %v", err)
	}

	if err := fs.ChangeDir("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ChangeDir(missing) error = %v, want ErrNotFound", err)
	}
	if err := fs.ChangeDir(".."); !errors.Is(err, ErrNotFound) {
		t.Errorf("ChangeDir(..) at the root error = %v, want ErrNotFound", err)
	}

	if err := fs.ChangeDir("docs"); err != nil {
		t.Fatalf("ChangeDir(docs) error = %v", err)
	}
	if err := fs.ChangeDir("/"); err != nil {
		t.Fatalf("ChangeDir(/) error = %v", err)
	}
	if fs.Path() != "/" {
		t.Errorf("Path() = %q after /, want %q", fs.Path(), "/")
	}
}

func TestRmdir(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})

	if err := fs.Mkdir("empty"); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := fs.Mkdir("full"); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := fs.ChangeDir("full"); err != nil {
		t.Fatalf("ChangeDir() error = %v", err)
	}
	if err := fs.CreateFile("keep.txt"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	if err := fs.ChangeDir(".."); err != nil {
		t.Fatalf("ChangeDir(..) error = %v", err)
	}

	free := fs.FreeBlocks()
	if err := fs.Rmdir("empty"); err != nil {
		t.Fatalf("Rmdir(empty) error = %v", err)
	}
	if fs.FreeBlocks() != free+1 {
		t.Errorf("FreeBlocks() = %d after rmdir, want %d", fs.FreeBlocks(), free+1)
	}

	if err := fs.Rmdir("full"); !errors.Is(err, ErrDirectoryNotEmpty) {
		t.Errorf("Rmdir(full) error = %v, want ErrDirectoryNotEmpty", err)
	}
	if err := fs.Rmdir("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rmdir(missing) error = %v, want ErrNotFound", err)
	}

	if err := fs.CreateFile("plain"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	if err := fs.Rmdir("plain"); !errors.Is(err, ErrNotADirectory) {
		t.Errorf("Rmdir(plain) error = %v, want ErrNotADirectory", err)
	}
}

func TestSpaceConservation(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})

	before := fs.FreeBlocks()

	payload := bytes.Repeat([]byte{0x55}, 10*1024)
	if err := fs.CreateFile("tmp"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}
	if err := fs.WriteFile("tmp", payload); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := fs.DeleteFile("tmp"); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}

	if after := fs.FreeBlocks(); after != before {
		t.Errorf("FreeBlocks() = %d after create/write/delete, want %d", after, before)
	}
}

func TestOperationsWithoutMount(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{})
	if err := fs.Unmount(); err != nil {
		t.Fatalf("Unmount() error = %v", err)
	}

	if err := fs.CreateFile("x"); !errors.Is(err, ErrNotMounted) {
		t.Errorf("CreateFile() error = %v, want ErrNotMounted", err)
	}
	if _, err := fs.ReadDir(); !errors.Is(err, ErrNotMounted) {
		t.Errorf("ReadDir() error = %v, want ErrNotMounted", err)
	}
	if err := fs.Unmount(); !errors.Is(err, ErrNotMounted) {
		t.Errorf("second Unmount() error = %v, want ErrNotMounted", err)
	}
}

func TestVolumeInfo(t *testing.T) {
	fs, _ := newTestFs(t, FormatOptions{VolumeLabel: "INFOVOL"})

	info, err := fs.Info()
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.Label != "INFOVOL" {
		t.Errorf("Label = %q, want %q", info.Label, "INFOVOL")
	}
	if info.TotalBlocks != 1024 || info.BlockSize != 1024 || info.FATBlocks != 2 {
		t.Errorf("geometry = %d blocks x %d bytes, %d fat blocks; want 1024 x 1024, 2", info.TotalBlocks, info.BlockSize, info.FATBlocks)
	}
	if info.FreeBlocks != 1024-4 {
		t.Errorf("FreeBlocks = %d, want %d", info.FreeBlocks, 1024-4)
	}
	if info.Created.IsZero() {
		t.Error("Created is zero")
	}
}

func TestImageIsPortableBytes(t *testing.T) {
	// The exact byte layout is part of the contract: check the documented
	// offsets of a formatted image directly.
	host := afero.NewMemMapFs()
	if err := Format(host, testImage, FormatOptions{TotalSize: 1024 * 1024, VolumeLabel: "RAW"}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	raw, err := afero.ReadFile(host, testImage)
	if err != nil {
		t.Fatalf("could not read the image: %v", err)
	}
	if len(raw) != 1024*1024 {
		t.Fatalf("image length = %d, want %d", len(raw), 1024*1024)
	}

	if !bytes.Equal(raw[:8], []byte("MYFATFS\x00")) {
		t.Errorf("signature bytes = %q", raw[:8])
	}

	// FAT starts at block 1: system entries reserved, first data entry
	// free.
	fatOff := 1024
	if raw[fatOff] != 0xFD || raw[fatOff+1] != 0xFF {
		t.Errorf("entry 0 = %02x%02x, want fdff", raw[fatOff], raw[fatOff+1])
	}
	dataOff := fatOff + 4*2
	if raw[dataOff] != 0xFF || raw[dataOff+1] != 0xFF {
		t.Errorf("entry 4 = %02x%02x, want ffff", raw[dataOff], raw[dataOff+1])
	}
}
