// Package fs stores snapshots as plain files under a root directory, each with
// a small JSON sidecar holding its checksum and metadata.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"portfoliocalc/internal/blob/core"
)

const (
	metaSuffix = ".meta"
	tempPrefix = ".upload-"
)

// Store implements core.Store on the local filesystem.
type Store struct {
	root string
	now  func() time.Time
}

// New returns a store rooted at root, creating the directory if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./backups"
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create root: %w", err)
	}
	return &Store{root: root, now: time.Now}, nil
}

// Root returns the directory backing the store.
func (s *Store) Root() string { return s.root }

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: empty", core.ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") || filepath.IsAbs(key) {
		return "", fmt.Errorf("%w: absolute %q", core.ErrInvalidKey, key)
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	for _, part := range strings.Split(clean, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: traversal %q", core.ErrInvalidKey, key)
		}
	}
	base := filepath.Base(clean)
	if strings.HasSuffix(base, metaSuffix) || strings.HasPrefix(base, tempPrefix) {
		return "", fmt.Errorf("%w: reserved name %q", core.ErrInvalidKey, key)
	}
	return clean, nil
}

func (s *Store) paths(key string) (clean, data, meta string, err error) {
	clean, err = sanitizeKey(key)
	if err != nil {
		return "", "", "", err
	}
	data = filepath.Join(s.root, filepath.FromSlash(clean))
	return clean, data, data + metaSuffix, nil
}

type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	SHA256      string            `json:"sha256"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Put streams r into a temporary file, syncs it, then hard-links it into
// place. The link fails if the key already exists, so concurrent writers can
// never replace an existing snapshot.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	clean, dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, err
	}
	if _, err := os.Lstat(dataPath); err == nil {
		return core.Info{}, fmt.Errorf("%w: %s", core.ErrExists, clean)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o750); err != nil {
		return core.Info{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), tempPrefix+"*")
	if err != nil {
		return core.Info{}, err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), readerWithContext(ctx, r))
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return core.Info{}, fmt.Errorf("write %s: %w", clean, err)
	}
	if err := os.Link(tmpName, dataPath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return core.Info{}, fmt.Errorf("%w: %s", core.ErrExists, clean)
		}
		return core.Info{}, fmt.Errorf("link %s: %w", clean, err)
	}
	sc := sidecar{
		ContentType: opts.ContentType,
		Metadata:    opts.Metadata,
		SHA256:      hex.EncodeToString(h.Sum(nil)),
		Size:        n,
		CreatedAt:   s.now().UTC(),
	}
	raw, err := json.Marshal(sc)
	if err != nil {
		return core.Info{}, err
	}
	if err := os.WriteFile(metaPath, raw, 0o640); err != nil {
		return core.Info{}, fmt.Errorf("write sidecar %s: %w", clean, err)
	}
	return s.info(clean, dataPath, sc), nil
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	clean, dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	f, err := os.Open(dataPath) // #nosec G304 -- key sanitized above
	if err != nil {
		return core.Info{}, nil, notFound(clean, err)
	}
	sc, err := s.readSidecar(dataPath, metaPath)
	if err != nil {
		_ = f.Close()
		return core.Info{}, nil, err
	}
	return s.info(clean, dataPath, sc), f, nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	clean, dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, err
	}
	if _, err := os.Stat(dataPath); err != nil {
		return core.Info{}, notFound(clean, err)
	}
	sc, err := s.readSidecar(dataPath, metaPath)
	if err != nil {
		return core.Info{}, err
	}
	return s.info(clean, dataPath, sc), nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	var out []core.Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() || strings.HasSuffix(name, metaSuffix) || strings.HasPrefix(name, tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		sc, err := s.readSidecar(path, path+metaSuffix)
		if err != nil {
			return err
		}
		out = append(out, s.info(key, path, sc))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// readSidecar falls back to file stats when the sidecar is missing, which
// happens for files copied into the directory by hand.
func (s *Store) readSidecar(dataPath, metaPath string) (sidecar, error) {
	raw, err := os.ReadFile(metaPath) // #nosec G304 -- derived from sanitized key
	if err == nil {
		var sc sidecar
		if err := json.Unmarshal(raw, &sc); err != nil {
			return sidecar{}, fmt.Errorf("decode sidecar %s: %w", metaPath, err)
		}
		return sc, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return sidecar{}, err
	}
	st, err := os.Stat(dataPath)
	if err != nil {
		return sidecar{}, err
	}
	return sidecar{Size: st.Size(), CreatedAt: st.ModTime().UTC()}, nil
}

func (s *Store) info(key, dataPath string, sc sidecar) core.Info {
	return core.Info{
		Key:          key,
		Size:         sc.Size,
		ContentType:  sc.ContentType,
		Checksum:     sc.SHA256,
		Metadata:     sc.Metadata,
		LastModified: sc.CreatedAt,
		Location:     dataPath,
	}
}

func notFound(key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return err
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
