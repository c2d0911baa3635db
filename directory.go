package fatkit

import (
	"bytes"
	"encoding/binary"

	"github.com/fatkit/fatkit/checkpoint"
)

// directory is the decoded content of one directory block: a fixed array of
// slots followed by an entry count. The count is maintained on every insert
// and remove but lookups always scan the slots, the count is advisory.
type directory struct {
	entries []DirectoryEntry
	count   uint16
}

// newDirectory returns an empty directory with the capacity of one block.
func newDirectory(blockSize int) *directory {
	return &directory{entries: make([]DirectoryEntry, dirCapacity(blockSize))}
}

// newSubdir returns a directory seeded with its two standard entries:
// "." in slot 0 pointing at itself and ".." in slot 1 pointing at the
// parent. The root directory is never seeded this way.
func newSubdir(self, parent uint16, blockSize int, now uint32) *directory {
	d := newDirectory(blockSize)
	d.entries[0] = newEntry(".", TypeDirectory, self, now)
	d.entries[1] = newEntry("..", TypeDirectory, parent, now)
	d.count = 2
	return d
}

// newEntry fills a directory entry. The name must already be validated.
func newEntry(name string, typ uint8, first uint16, now uint32) DirectoryEntry {
	e := DirectoryEntry{
		FileSize:     0,
		FirstBlock:   first,
		Type:         typ,
		CreatedTime:  now,
		ModifiedTime: now,
	}
	copy(e.Filename[:], name)
	return e
}

// decodeDirectory interprets the raw content of a directory block.
func decodeDirectory(raw []byte, blockSize int) (*directory, error) {
	d := newDirectory(blockSize)

	r := bytes.NewReader(raw)
	for i := range d.entries {
		if err := binary.Read(r, binary.LittleEndian, &d.entries[i]); err != nil {
			return nil, checkpoint.Wrap(err, ErrIO)
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &d.count); err != nil {
		return nil, checkpoint.Wrap(err, ErrIO)
	}
	return d, nil
}

// encode renders the directory into a block-sized buffer.
func (d *directory) encode(blockSize int) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(blockSize)
	for i := range d.entries {
		if err := binary.Write(&out, binary.LittleEndian, &d.entries[i]); err != nil {
			return nil, checkpoint.Wrap(err, ErrIO)
		}
	}
	if err := binary.Write(&out, binary.LittleEndian, d.count); err != nil {
		return nil, checkpoint.Wrap(err, ErrIO)
	}

	buf := make([]byte, blockSize)
	copy(buf, out.Bytes())
	return buf, nil
}

// find returns the slot holding name, or -1. Names compare byte for byte,
// case-sensitive.
func (d *directory) find(name string) int {
	for i := range d.entries {
		if !d.entries[i].IsEmpty() && d.entries[i].Name() == name {
			return i
		}
	}
	return -1
}

// freeSlot returns the first unused slot, or -1 when the directory is full.
func (d *directory) freeSlot() int {
	for i := range d.entries {
		if d.entries[i].IsEmpty() {
			return i
		}
	}
	return -1
}

// insert places e into the first free slot and bumps the count.
func (d *directory) insert(e DirectoryEntry) (int, error) {
	slot := d.freeSlot()
	if slot < 0 {
		return -1, checkpoint.From(ErrDirectoryFull)
	}
	d.entries[slot] = e
	d.count++
	return slot, nil
}

// remove clears the slot and lowers the count.
func (d *directory) remove(slot int) {
	d.entries[slot] = DirectoryEntry{}
	if d.count > 0 {
		d.count--
	}
}

// used returns the authoritative number of occupied slots.
func (d *directory) used() int {
	var n int
	for i := range d.entries {
		if !d.entries[i].IsEmpty() {
			n++
		}
	}
	return n
}
