package fatkit

import (
	"os"
	"time"
)

// FileInfo returns an os.FileInfo view of the entry.
func (e *DirectoryEntry) FileInfo() os.FileInfo {
	return entryInfo{*e}
}

type entryInfo struct {
	entry DirectoryEntry
}

func (e entryInfo) Name() string {
	return e.entry.Name()
}

func (e entryInfo) Size() int64 {
	return int64(e.entry.FileSize)
}

func (e entryInfo) Mode() os.FileMode {
	if e.IsDir() {
		return os.ModeDir
	}
	return 0
}

func (e entryInfo) ModTime() time.Time {
	return epochTime(e.entry.ModifiedTime)
}

func (e entryInfo) IsDir() bool {
	return e.entry.IsDir()
}

func (e entryInfo) Sys() interface{} {
	return e.entry
}

// dirInfo describes a directory that has no entry of its own, the root and
// the current directory handle.
type dirInfo struct {
	name string
}

func (d dirInfo) Name() string       { return d.name }
func (d dirInfo) Size() int64        { return 0 }
func (d dirInfo) Mode() os.FileMode  { return os.ModeDir }
func (d dirInfo) ModTime() time.Time { return time.Time{} }
func (d dirInfo) IsDir() bool        { return true }
func (d dirInfo) Sys() interface{}   { return nil }
