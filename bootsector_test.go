package fatkit

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBootSectorRoundTrip(t *testing.T) {
	boot := newBootSector(1024, 1024, "TESTVOL", 1700000000)

	raw, err := encodeBootSector(&boot, 1024)
	if err != nil {
		t.Fatalf("encodeBootSector() error = %v", err)
	}
	if len(raw) != 1024 {
		t.Fatalf("encodeBootSector() returned %d bytes, want 1024", len(raw))
	}

	got, err := decodeBootSector(raw)
	if err != nil {
		t.Fatalf("decodeBootSector() error = %v", err)
	}
	if diff := cmp.Diff(boot, got); diff != "" {
		t.Errorf("decoded boot sector differs (-want +got):\n%s", diff)
	}
}

func TestNewBootSectorLayout(t *testing.T) {
	tests := []struct {
		name           string
		totalBlocks    uint32
		blockSize      int
		wantFATBlocks  uint32
		wantRootBlock  uint32
		wantDataStart  uint32
	}{
		{
			name:          "1 MiB image with 1 KiB blocks",
			totalBlocks:   1024,
			blockSize:     1024,
			wantFATBlocks: 2,
			wantRootBlock: 3,
			wantDataStart: 4,
		},
		{
			name:          "64 MiB image with 1 KiB blocks",
			totalBlocks:   65536,
			blockSize:     1024,
			wantFATBlocks: 128,
			wantRootBlock: 129,
			wantDataStart: 130,
		},
		{
			name:          "uneven table tail still gets a whole block",
			totalBlocks:   2000,
			blockSize:     4096,
			wantFATBlocks: 1,
			wantRootBlock: 2,
			wantDataStart: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boot := newBootSector(tt.totalBlocks, tt.blockSize, "", 0)
			if boot.FATBlocks != tt.wantFATBlocks {
				t.Errorf("FATBlocks = %d, want %d", boot.FATBlocks, tt.wantFATBlocks)
			}
			if boot.RootDirBlock != tt.wantRootBlock {
				t.Errorf("RootDirBlock = %d, want %d", boot.RootDirBlock, tt.wantRootBlock)
			}
			if boot.DataStartBlock != tt.wantDataStart {
				t.Errorf("DataStartBlock = %d, want %d", boot.DataStartBlock, tt.wantDataStart)
			}
			if boot.FATCopies != 1 {
				t.Errorf("FATCopies = %d, want 1", boot.FATCopies)
			}
		})
	}
}

func TestDecodeBootSectorBadSignature(t *testing.T) {
	raw := make([]byte, 1024)
	copy(raw, "NOTMYFAT")

	_, err := decodeBootSector(raw)
	if !errors.Is(err, ErrBadSignature) {
		t.Errorf("decodeBootSector() error = %v, want ErrBadSignature", err)
	}
}

func TestBootSectorValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*BootSector)
		hostSize int64
		wantErr  bool
	}{
		{
			name:     "matching image",
			mutate:   func(*BootSector) {},
			hostSize: 1024 * 1024,
		},
		{
			name:     "host file too short",
			mutate:   func(*BootSector) {},
			hostSize: 1024 * 1024 / 2,
			wantErr:  true,
		},
		{
			name:     "block size not a power of two",
			mutate:   func(b *BootSector) { b.BlockSize = 1000 },
			hostSize: 1024 * 1024,
			wantErr:  true,
		},
		{
			name:     "root directory not behind the table",
			mutate:   func(b *BootSector) { b.RootDirBlock = 7 },
			hostSize: 1024 * 1024,
			wantErr:  true,
		},
		{
			name:     "no data area",
			mutate:   func(b *BootSector) { b.TotalBlocks = 4; b.FATBlocks = 2 },
			hostSize: 4 * 1024,
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			boot := newBootSector(1024, 1024, "", 0)
			tt.mutate(&boot)

			err := boot.validate(tt.hostSize)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrIncompatibleImage) {
				t.Errorf("validate() error = %v, want ErrIncompatibleImage", err)
			}
		})
	}
}

func TestBootSectorLabel(t *testing.T) {
	boot := newBootSector(1024, 1024, "MYVOLUME", 0)
	if got := boot.Label(); got != "MYVOLUME" {
		t.Errorf("Label() = %q, want %q", got, "MYVOLUME")
	}
}
