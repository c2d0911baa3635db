package fatkit

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/fatkit/fatkit/checkpoint"
)

// newBootSector composes the superblock for a fresh image. The allocation
// table starts at block 1, the root directory sits directly behind it and
// the data area behind that.
func newBootSector(totalBlocks uint32, blockSize int, label string, now uint32) BootSector {
	fatBlocks := (totalBlocks*2 + uint32(blockSize) - 1) / uint32(blockSize)

	boot := BootSector{
		Signature:      signatureText,
		TotalBlocks:    totalBlocks,
		FATBlocks:      fatBlocks,
		RootDirBlock:   fatStartBlock + fatBlocks,
		DataStartBlock: fatStartBlock + fatBlocks + 1,
		BlockSize:      uint16(blockSize),
		FATCopies:      1,
		CreatedTime:    now,
	}
	copy(boot.VolumeLabel[:], label)
	return boot
}

// encodeBootSector renders the superblock into a block-sized buffer, the
// remainder zero-padded.
func encodeBootSector(boot *BootSector, blockSize int) ([]byte, error) {
	var out bytes.Buffer
	if err := binary.Write(&out, binary.LittleEndian, boot); err != nil {
		return nil, checkpoint.Wrap(err, ErrIO)
	}
	if out.Len() > blockSize {
		return nil, checkpoint.Wrap(fmt.Errorf("boot sector of %d bytes exceeds the block size %d", out.Len(), blockSize), ErrIncompatibleImage)
	}

	buf := make([]byte, blockSize)
	copy(buf, out.Bytes())
	return buf, nil
}

// decodeBootSector reads the superblock out of the raw content of block 0
// and verifies the signature.
func decodeBootSector(raw []byte) (BootSector, error) {
	var boot BootSector
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &boot); err != nil {
		return BootSector{}, checkpoint.Wrap(err, ErrBadSignature)
	}

	if boot.Signature != signatureText {
		return BootSector{}, checkpoint.Wrap(fmt.Errorf("signature %q", trimNul(boot.Signature[:])), ErrBadSignature)
	}
	return boot, nil
}

// validate checks that the decoded superblock describes the host file it was
// read from.
func (b *BootSector) validate(hostSize int64) error {
	bs := int(b.BlockSize)
	if bs < 512 || bs > 16*1024 || bs&(bs-1) != 0 {
		return checkpoint.Wrap(fmt.Errorf("block size %d", bs), ErrIncompatibleImage)
	}
	if int64(b.TotalBlocks)*int64(bs) != hostSize {
		return checkpoint.Wrap(fmt.Errorf("%d blocks of %d bytes do not cover an image of %d bytes", b.TotalBlocks, bs, hostSize), ErrIncompatibleImage)
	}
	if b.RootDirBlock != fatStartBlock+b.FATBlocks || b.DataStartBlock != b.RootDirBlock+1 {
		return checkpoint.Wrap(fmt.Errorf("inconsistent system area layout"), ErrIncompatibleImage)
	}
	if b.DataStartBlock >= b.TotalBlocks {
		return checkpoint.Wrap(fmt.Errorf("no data area behind block %d", b.DataStartBlock), ErrIncompatibleImage)
	}
	return nil
}

// Label returns the volume label without trailing NULs.
func (b *BootSector) Label() string {
	return trimNul(b.VolumeLabel[:])
}

func trimNul(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}
