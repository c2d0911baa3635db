// Package checkpoint decorates errors with the file and line of the call
// site. The decorated error stays transparent to errors.Is and errors.As,
// both for the wrapped cause and for an optional classifying error, so
// callers can still match sentinel errors while the message carries a
// minimal trace of where things went wrong.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
)

// From annotates err with the caller's position. It returns nil for a nil
// err. io.EOF and io.ErrUnexpectedEOF pass through untouched because large
// parts of the standard library compare them by identity.
func From(err error) error {
	return wrap(err, nil)
}

// Wrap annotates cause with the caller's position and attaches class as an
// additional error the result matches through errors.Is and errors.As.
// It returns nil for a nil cause, so error returns can be wrapped
// unconditionally:
//
//	err := device.readBlock(n, buf)
//	return checkpoint.Wrap(err, ErrIO)
func Wrap(cause, class error) error {
	return wrap(cause, class)
}

func wrap(cause, class error) error {
	if cause == nil {
		return nil
	}
	// https://github.com/golang/go/issues/39155
	if cause == io.EOF || cause == io.ErrUnexpectedEOF {
		return cause
	}

	cp := &checkpoint{cause: cause, class: class}
	// Both exported entry points sit one frame below the caller.
	if _, file, line, ok := runtime.Caller(2); ok {
		cp.site = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return cp
}

type checkpoint struct {
	cause error
	class error
	site  string
}

func (c *checkpoint) Error() string {
	site := c.site
	if site == "" {
		site = "unknown"
	}
	if c.class != nil {
		return fmt.Sprintf("%s: %v: %v", site, c.class, c.cause)
	}
	return fmt.Sprintf("%s: %v", site, c.cause)
}

func (c *checkpoint) Unwrap() error {
	return c.cause
}

func (c *checkpoint) Is(target error) bool {
	return c.class != nil && errors.Is(c.class, target)
}

func (c *checkpoint) As(target interface{}) bool {
	return c.class != nil && errors.As(c.class, target)
}
