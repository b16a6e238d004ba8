// Package blob re-exports the snapshot store abstractions and opens the
// configured backend.
package blob

import (
	"context"
	"fmt"

	"portfoliocalc/internal/blob/core"
	"portfoliocalc/internal/infra/blob/fs"
	"portfoliocalc/internal/infra/blob/memory"
	"portfoliocalc/internal/infra/blob/s3"
)

type (
	Driver     = core.Driver
	PutOptions = core.PutOptions
	Info       = core.Info
	Store      = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrExists     = core.ErrExists
	ErrNotFound   = core.ErrNotFound
	ErrInvalidKey = core.ErrInvalidKey
)

// Settings selects and parameterises a backend.
type Settings struct {
	Driver Driver
	FSRoot string
	S3     s3.Config
}

// Open constructs the backend named by s.Driver. An empty driver means fs.
func Open(ctx context.Context, s Settings) (Store, error) {
	switch s.Driver {
	case "", DriverFilesystem:
		return fs.New(s.FSRoot)
	case DriverS3:
		return s3.New(ctx, s.S3)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", s.Driver)
	}
}
