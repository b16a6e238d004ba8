package backup

import (
	"errors"
	"fmt"
)

var (
	ErrNotWritable       = errors.New("backup target not writable")
	ErrInsufficientSpace = errors.New("insufficient free space for backup")
	ErrChecksumMismatch  = errors.New("backup checksum mismatch")
)

// BackupError reports a snapshot that could not be taken. It is fatal to a
// run: no stage executes without a successful backup.
type BackupError struct {
	Op   string
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }
