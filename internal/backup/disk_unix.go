//go:build unix

package backup

import "golang.org/x/sys/unix"

// DiskUsage is the capacity of the filesystem holding a path, in bytes.
type DiskUsage struct {
	Total     uint64
	Available uint64
}

func statDisk(path string) (DiskUsage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DiskUsage{}, err
	}
	return DiskUsage{
		Total:     st.Blocks * uint64(st.Bsize),
		Available: st.Bavail * uint64(st.Bsize),
	}, nil
}

func checkWritable(dir string) error {
	return unix.Access(dir, unix.W_OK)
}
