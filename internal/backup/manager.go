// Package backup snapshots the on-disk dataset into a write-once store before
// a run mutates anything, and restores snapshots on request.
package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"portfoliocalc/internal/blob"
	"portfoliocalc/internal/dataset"
)

// TimestampLayout is the compact ISO 8601 form used in snapshot keys.
const TimestampLayout = "20060102T150405Z"

const maxKeyAttempts = 10

// Handle identifies a snapshot.
type Handle struct {
	Key       string
	Location  string
	Size      int64
	Checksum  string
	CreatedAt time.Time
	Source    string
}

// Manager takes and restores snapshots.
type Manager struct {
	store   blob.Store
	logger  *zap.Logger
	now     func() time.Time
	stat    func(string) (DiskUsage, error)
	minFree uint64
	format  dataset.Options
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithMinFree requires this many bytes to remain free on top of the snapshot
// size when the store is a local directory. Zero requires twice the snapshot
// size in total.
func WithMinFree(bytes uint64) Option { return func(m *Manager) { m.minFree = bytes } }

// WithFormat sets the delimited format restored snapshots are checked against.
func WithFormat(f dataset.Options) Option { return func(m *Manager) { m.format = f } }

// WithDiskStat replaces the filesystem probe.
func WithDiskStat(fn func(string) (DiskUsage, error)) Option {
	return func(m *Manager) { m.stat = fn }
}

// New builds a Manager over store.
func New(store blob.Store, opts ...Option) *Manager {
	m := &Manager{store: store, logger: zap.NewNop(), now: time.Now, stat: statDisk}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Driver reports the backing store's driver.
func (m *Manager) Driver() blob.Driver { return m.store.Driver() }

// KeyFor builds <basename>_backup_<timestamp>.<ext> for source.
func KeyFor(source string, at time.Time) string {
	base, ext := splitName(source)
	return fmt.Sprintf("%s_backup_%s%s", base, at.UTC().Format(TimestampLayout), ext)
}

func splitName(source string) (base, ext string) {
	name := filepath.Base(source)
	ext = filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

// Prefix is the key prefix shared by every snapshot of source.
func Prefix(source string) string {
	base, _ := splitName(source)
	return base + "_backup_"
}

// rooted is implemented by stores backed by a local directory.
type rooted interface{ Root() string }

// Snapshot copies the file at source into the store. A second snapshot in the
// same second gets a numeric suffix rather than replacing the first.
func (m *Manager) Snapshot(ctx context.Context, source string, meta map[string]string) (Handle, error) {
	f, err := os.Open(source) // #nosec G304 -- operator supplied dataset path
	if err != nil {
		return Handle{}, &BackupError{Op: "open", Path: source, Err: err}
	}
	defer func() { _ = f.Close() }()
	st, err := f.Stat()
	if err != nil {
		return Handle{}, &BackupError{Op: "stat", Path: source, Err: err}
	}
	if err := m.preflight(uint64(st.Size())); err != nil {
		return Handle{}, err
	}

	created := m.now().UTC()
	key := KeyFor(source, created)
	metadata := map[string]string{"source": filepath.Base(source), "created": created.Format(time.RFC3339)}
	for k, v := range meta {
		metadata[k] = v
	}
	for attempt := 1; attempt <= maxKeyAttempts; attempt++ {
		if attempt > 1 {
			base, ext := splitName(key)
			key = base + "_" + strconv.Itoa(attempt) + ext
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return Handle{}, &BackupError{Op: "rewind", Path: source, Err: err}
			}
		}
		h := sha256.New()
		info, err := m.store.Put(ctx, key, io.TeeReader(f, h), blob.PutOptions{ContentType: "text/csv", Metadata: metadata})
		if errors.Is(err, blob.ErrExists) {
			key = KeyFor(source, created)
			continue
		}
		if err != nil {
			return Handle{}, &BackupError{Op: "write", Path: key, Err: err}
		}
		sum := hex.EncodeToString(h.Sum(nil))
		if info.Size != st.Size() {
			return Handle{}, &BackupError{Op: "verify", Path: key, Err: fmt.Errorf("%w: wrote %d of %d bytes", ErrChecksumMismatch, info.Size, st.Size())}
		}
		if len(info.Checksum) == len(sum) && info.Checksum != sum {
			return Handle{}, &BackupError{Op: "verify", Path: key, Err: ErrChecksumMismatch}
		}
		hd := Handle{Key: info.Key, Location: info.Location, Size: info.Size, Checksum: sum, CreatedAt: created, Source: source}
		m.logger.Info("snapshot written",
			zap.String("key", hd.Key),
			zap.String("location", hd.Location),
			zap.Int64("bytes", hd.Size),
			zap.String("driver", string(m.store.Driver())))
		return hd, nil
	}
	return Handle{}, &BackupError{Op: "write", Path: key, Err: blob.ErrExists}
}

func (m *Manager) preflight(size uint64) error {
	r, ok := m.store.(rooted)
	if !ok {
		return nil
	}
	root := r.Root()
	if err := checkWritable(root); err != nil {
		return &BackupError{Op: "preflight", Path: root, Err: fmt.Errorf("%w: %v", ErrNotWritable, err)}
	}
	usage, err := m.stat(root)
	if err != nil {
		m.logger.Warn("free space probe failed", zap.String("dir", root), zap.Error(err))
		return nil
	}
	need := size + m.minFree
	if m.minFree == 0 {
		need = 2 * size
	}
	if usage.Available < need {
		return &BackupError{Op: "preflight", Path: root, Err: fmt.Errorf("%w: need %d bytes, %d available", ErrInsufficientSpace, need, usage.Available)}
	}
	return nil
}

// List returns the snapshots of source, newest first.
func (m *Manager) List(ctx context.Context, source string) ([]Handle, error) {
	infos, err := m.store.List(ctx, Prefix(source))
	if err != nil {
		return nil, err
	}
	out := make([]Handle, 0, len(infos))
	for _, in := range infos {
		out = append(out, Handle{Key: in.Key, Location: in.Location, Size: in.Size, Checksum: in.Checksum, CreatedAt: in.LastModified, Source: source})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key > out[j].Key })
	return out, nil
}

// Restore replaces dest with the snapshot stored under key. The replacement is
// atomic and the restored bytes must parse as a dataset before they land.
func (m *Manager) Restore(ctx context.Context, key, dest string) error {
	info, rc, err := m.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	h := sha256.New()
	var buf strings.Builder
	if _, err := io.Copy(io.MultiWriter(&buf, h), rc); err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if sum := hex.EncodeToString(h.Sum(nil)); len(info.Checksum) == len(sum) && info.Checksum != sum {
		return fmt.Errorf("restore %s: %w", key, ErrChecksumMismatch)
	}
	if _, err := dataset.Read(strings.NewReader(buf.String()), m.format); err != nil {
		return fmt.Errorf("restore %s: %w", key, err)
	}
	if err := dataset.WriteFileAtomic(dest, func(w io.Writer) error {
		_, err := io.WriteString(w, buf.String())
		return err
	}); err != nil {
		return fmt.Errorf("restore %s: %w", key, err)
	}
	m.logger.Info("snapshot restored", zap.String("key", key), zap.String("dest", dest))
	return nil
}
