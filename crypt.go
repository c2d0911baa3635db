package fatkit

import (
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/pbkdf2"
)

// blockMask XORs data blocks with a keystream derived from a password and
// the block number. It hides file content from a casual look at the image
// and nothing more, the construction is not cryptographically secure.
// Metadata blocks are never masked so a masked image still mounts.
type blockMask struct {
	key []byte
}

const maskSalt = "MYFATFS.mask.v1"

func newBlockMask(password string) *blockMask {
	return &blockMask{
		key: pbkdf2.Key([]byte(password), []byte(maskSalt), 4096, 32, sha256.New),
	}
}

// apply XORs buf in place with the keystream of the given block. XOR is its
// own inverse, the same call masks and unmasks.
func (m *blockMask) apply(block uint32, buf []byte) {
	var counter [8]byte
	binary.LittleEndian.PutUint32(counter[:4], block)

	var off int
	for chunk := uint32(0); off < len(buf); chunk++ {
		binary.LittleEndian.PutUint32(counter[4:], chunk)

		h := sha256.New()
		h.Write(m.key)
		h.Write(counter[:])
		stream := h.Sum(nil)

		for i := 0; i < len(stream) && off < len(buf); i++ {
			buf[off] ^= stream[i]
			off++
		}
	}
}
