package fatkit

import (
	"encoding/binary"
	"fmt"

	"github.com/fatkit/fatkit/checkpoint"
)

// fatTable is the in-memory mirror of the allocation table. Every mutating
// operation works on the mirror and persists it through flush; the on-disk
// table is only ever read at mount time.
type fatTable struct {
	entries   []fatEntry
	dev       *device
	fatBlocks uint32
	dataStart uint32
}

// newFATTable builds the mirror of a freshly formatted image: everything
// free except the system area, which is marked reserved.
func newFATTable(dev *device, boot *BootSector) *fatTable {
	t := &fatTable{
		entries:   make([]fatEntry, boot.TotalBlocks),
		dev:       dev,
		fatBlocks: boot.FATBlocks,
		dataStart: boot.DataStartBlock,
	}
	for i := range t.entries {
		t.entries[i] = fatFree
	}
	for i := uint32(0); i < t.dataStart; i++ {
		t.entries[i] = fatBad
	}
	return t
}

// loadFATTable reads the mirror from the blocks behind the boot sector.
func loadFATTable(dev *device, boot *BootSector) (*fatTable, error) {
	raw := make([]byte, int(boot.FATBlocks)*dev.blockSize)
	for i := uint32(0); i < boot.FATBlocks; i++ {
		off := int(i) * dev.blockSize
		if err := dev.readBlock(fatStartBlock+i, raw[off:off+dev.blockSize]); err != nil {
			return nil, err
		}
	}

	t := &fatTable{
		entries:   make([]fatEntry, boot.TotalBlocks),
		dev:       dev,
		fatBlocks: boot.FATBlocks,
		dataStart: boot.DataStartBlock,
	}
	for i := range t.entries {
		t.entries[i] = fatEntry(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return t, nil
}

// flush writes every block of the table back to disk. The tail of the last
// block, beyond the final entry, stays zero.
func (t *fatTable) flush() error {
	raw := make([]byte, int(t.fatBlocks)*t.dev.blockSize)
	for i, e := range t.entries {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(e))
	}

	for i := uint32(0); i < t.fatBlocks; i++ {
		off := int(i) * t.dev.blockSize
		if err := t.dev.writeBlock(fatStartBlock+i, raw[off:off+t.dev.blockSize]); err != nil {
			return err
		}
	}
	return nil
}

// allocate hands out the lowest free block of the data area, marks it as a
// chain end and persists the table. Block numbers that collide with the
// reserved marker values are never handed out.
func (t *fatTable) allocate() (uint16, error) {
	limit := uint32(len(t.entries))
	if limit > uint32(fatBad) {
		limit = uint32(fatBad)
	}

	for i := t.dataStart; i < limit; i++ {
		if !t.entries[i].IsFree() {
			continue
		}
		t.entries[i] = fatEOF
		if err := t.flush(); err != nil {
			return 0, err
		}
		return uint16(i), nil
	}
	return 0, checkpoint.From(ErrNoSpace)
}

// freeChain releases the chain starting at head and persists the table. The
// walk is bounded by the table size, a longer chain means the image is
// corrupt. A chain that runs into a free block is corrupt as well; a cycle
// shows up this way once the walk returns to a block it already released.
// Whatever was freed up to that point is still persisted.
func (t *fatTable) freeChain(head uint16) error {
	cur := fatEntry(head)
	for hops := 0; !cur.IsMarker(); hops++ {
		if hops >= len(t.entries) {
			t.flush()
			return checkpoint.Wrap(fmt.Errorf("chain from block %d exceeds %d blocks", head, len(t.entries)), ErrCorruptChain)
		}
		if int(cur) >= len(t.entries) {
			t.flush()
			return checkpoint.Wrap(fmt.Errorf("chain from block %d leaves the image at block %d", head, cur), ErrCorruptChain)
		}

		next := t.entries[cur]
		if next.IsFree() {
			t.flush()
			return checkpoint.Wrap(fmt.Errorf("chain from block %d runs into free block %d", head, cur), ErrCorruptChain)
		}
		t.entries[cur] = fatFree
		cur = next
	}
	return t.flush()
}

// link makes next the successor of prev, in memory only. Callers batch link
// calls and flush once.
func (t *fatTable) link(prev, next uint16) {
	t.entries[prev] = fatEntry(next)
}

// setEOF ends a chain at block, in memory only.
func (t *fatTable) setEOF(block uint16) {
	t.entries[block] = fatEOF
}

// next returns the successor entry of block.
func (t *fatTable) next(block uint16) fatEntry {
	return t.entries[block]
}

// walk follows the chain from head for n hops and returns the block it
// lands on, or the EOF marker when the chain is shorter.
func (t *fatTable) walk(head uint16, n int) (fatEntry, error) {
	cur := fatEntry(head)
	for i := 0; i < n; i++ {
		if cur.IsEOF() {
			return fatEOF, nil
		}
		if cur.IsMarker() || int(cur) >= len(t.entries) {
			return 0, checkpoint.Wrap(fmt.Errorf("chain hits entry %#04x after %d hops", uint16(cur), i), ErrCorruptChain)
		}
		cur = t.entries[cur]
	}
	return cur, nil
}

// freeCount returns the number of allocatable blocks.
func (t *fatTable) freeCount() uint32 {
	var n uint32
	for _, e := range t.entries {
		if e.IsFree() {
			n++
		}
	}
	return n
}
