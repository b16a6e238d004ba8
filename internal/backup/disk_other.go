//go:build !unix

package backup

import "errors"

// DiskUsage is the capacity of the filesystem holding a path, in bytes.
type DiskUsage struct {
	Total     uint64
	Available uint64
}

var errDiskUnknown = errors.New("disk usage unavailable on this platform")

func statDisk(string) (DiskUsage, error) { return DiskUsage{}, errDiskUnknown }

func checkWritable(string) error { return nil }
