package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const utf8BOM = "\ufeff"

// ParseError reports a malformed delimited record. Line is 1-based and counts
// physical lines, so quoted fields spanning lines are attributed to where the
// record starts.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Options control the delimited format. The zero value means comma separated.
type Options struct {
	Comma rune
}

func (o Options) comma() rune {
	if o.Comma == 0 {
		return ','
	}
	return o.Comma
}

// Load reads the comma separated file at path.
func Load(path string) (*Table, error) {
	return LoadWith(path, Options{})
}

// LoadWith reads the delimited file at path.
func LoadWith(path string, opts Options) (*Table, error) {
	f, err := os.Open(path) // #nosec G304 -- operator supplied dataset path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	t, err := Read(bufio.NewReader(f), opts)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return t, nil
}

// Read decodes a header row followed by data rows. Every record must carry
// exactly as many fields as the header; anything else is a ParseError rather
// than a silently merged or split row.
//
// Records may end in \n or \r\n. A \r\n inside a quoted field is read as
// \n, and Write always ends lines with \n, so a round trip normalises CRLF
// in both places.
func Read(r io.Reader, opts Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = opts.comma()
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, wrapCSV(err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	t, err := New(header...)
	if err != nil {
		return nil, &ParseError{Line: 1, Err: err}
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapCSV(err)
		}
		if err := t.AppendRow(rec); err != nil {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{Line: line, Err: err}
		}
	}
	return t, nil
}

func wrapCSV(err error) error {
	var ce *csv.ParseError
	if errors.As(err, &ce) {
		return &ParseError{Line: ce.StartLine, Err: ce.Err}
	}
	return &ParseError{Err: err}
}

// Write encodes t, quoting any field that contains the delimiter, a quote or a
// line break.
func Write(w io.Writer, t *Table, opts Options) error {
	cw := csv.NewWriter(w)
	cw.Comma = opts.comma()
	if err := cw.Write(t.columns); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save writes t to path atomically.
func Save(t *Table, path string) error {
	return SaveWith(t, path, Options{})
}

// SaveWith writes t to path atomically using opts.
func SaveWith(t *Table, path string, opts Options) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return Write(w, t, opts)
	})
}

// WriteFileAtomic streams content into a temporary file beside path, syncs it
// and renames it over path. A crash at any point leaves either the old file or
// the new one, never a partial write. An existing file's permissions are kept.
func WriteFileAtomic(path string, write func(io.Writer) error) (retErr error) {
	dir := filepath.Dir(path)
	mode := os.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if retErr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()
	bw := bufio.NewWriterSize(tmp, 1<<20)
	if err := write(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
