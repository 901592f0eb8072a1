// Package recordfile implements flat files of fixed-width records: append,
// linear scan, in-place rewrite at a known offset, and compaction through a
// temp file swapped in by rename. One file per record type, no header, no
// index; every call opens, scans and closes. Offsets returned by FindFirst are
// only meaningful while nothing else rewrites the file.
package recordfile

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrNotFound is returned when no record matches a predicate.
	ErrNotFound = errors.New("record not found")
	// ErrCorrupt is returned when a file cannot be interpreted as a whole
	// number of records, or a record fails to decode.
	ErrCorrupt = errors.New("record file corrupt")
)

// Codec encodes and decodes one record type at a fixed width.
type Codec[T any] interface {
	// Size is the exact encoded width of every record.
	Size() int
	// Encode writes rec into buf, which is exactly Size() bytes.
	Encode(rec T, buf []byte) error
	// Decode reads a record from buf, which is exactly Size() bytes.
	Decode(buf []byte) (T, error)
}

// Store is the record-store contract. FileStore is the on-disk implementation;
// MemStore backs unit tests that need fault injection.
type Store[T any] interface {
	Append(rec T) error
	FindFirst(match func(T) bool) (T, int64, error)
	ReadAll() ([]T, error)
	RewriteAt(offset int64, rec T) error
	Compact(drop func(T) bool) (int, error)
	Count() (int, error)
}

// FileStore keeps records in a single flat file. The zero value is not usable;
// construct with NewFile.
type FileStore[T any] struct {
	path  string
	codec Codec[T]
}

func NewFile[T any](path string, codec Codec[T]) *FileStore[T] {
	return &FileStore[T]{path: path, codec: codec}
}

// Path returns the backing file path.
func (s *FileStore[T]) Path() string { return s.path }

// Append writes rec at end of file, creating the file if needed.
func (s *FileStore[T]) Append(rec T) error {
	buf := make([]byte, s.codec.Size())
	if err := s.codec.Encode(rec, buf); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", s.path, err)
	}
	if _, err := f.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("append to %s: %w", s.path, err)
	}
	return f.Close()
}

// FindFirst scans from the start and returns the first record matching match,
// together with its byte offset. A missing file is an empty store.
func (s *FileStore[T]) FindFirst(match func(T) bool) (T, int64, error) {
	var zero T
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return zero, 0, ErrNotFound
		}
		return zero, 0, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	size := s.codec.Size()
	buf := make([]byte, size)
	var offset int64
	for {
		n, err := io.ReadFull(f, buf)
		if err == io.EOF {
			return zero, 0, ErrNotFound
		}
		if err != nil {
			// A trailing partial record means the file is damaged.
			if err == io.ErrUnexpectedEOF {
				return zero, 0, fmt.Errorf("%w: %s has %d trailing bytes", ErrCorrupt, s.path, n)
			}
			return zero, 0, fmt.Errorf("read %s: %w", s.path, err)
		}
		rec, err := s.codec.Decode(buf)
		if err != nil {
			return zero, 0, fmt.Errorf("%w: offset %d in %s: %v", ErrCorrupt, offset, s.path, err)
		}
		if match(rec) {
			return rec, offset, nil
		}
		offset += int64(size)
	}
}

// ReadAll returns every record in on-disk order. A missing file yields nil.
func (s *FileStore[T]) ReadAll() ([]T, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	size := s.codec.Size()
	buf := make([]byte, size)
	var out []T
	var offset int64
	for {
		n, err := io.ReadFull(f, buf)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			if err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("%w: %s has %d trailing bytes", ErrCorrupt, s.path, n)
			}
			return nil, fmt.Errorf("read %s: %w", s.path, err)
		}
		rec, err := s.codec.Decode(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: offset %d in %s: %v", ErrCorrupt, offset, s.path, err)
		}
		out = append(out, rec)
		offset += int64(size)
	}
}

// RewriteAt overwrites exactly one record in place. The offset must come from
// a FindFirst against the current file contents.
func (s *FileStore[T]) RewriteAt(offset int64, rec T) error {
	buf := make([]byte, s.codec.Size())
	if err := s.codec.Encode(rec, buf); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s for rewrite: %w", s.path, err)
	}
	if _, err := f.WriteAt(buf, offset); err != nil {
		_ = f.Close()
		return fmt.Errorf("rewrite %s at %d: %w", s.path, offset, err)
	}
	return f.Close()
}

// Compact rewrites the store omitting records for which drop returns true,
// then atomically replaces the original file. On any failure the original is
// left untouched and the temp file removed. Returns the number of records
// removed.
func (s *FileStore[T]) Compact(drop func(T) bool) (int, error) {
	recs, err := s.ReadAll()
	if err != nil {
		return 0, err
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", tmp, err)
	}

	removed := 0
	buf := make([]byte, s.codec.Size())
	for _, rec := range recs {
		if drop(rec) {
			removed++
			continue
		}
		if err := s.codec.Encode(rec, buf); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return 0, fmt.Errorf("encode record: %w", err)
		}
		if _, err := f.Write(buf); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return 0, fmt.Errorf("write %s: %w", tmp, err)
		}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("replace %s: %w", s.path, err)
	}
	return removed, nil
}

// Count returns the number of records without decoding them.
func (s *FileStore[T]) Count() (int, error) {
	fi, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat %s: %w", s.path, err)
	}
	size := int64(s.codec.Size())
	if fi.Size()%size != 0 {
		return 0, fmt.Errorf("%w: %s size %d not a multiple of %d", ErrCorrupt, s.path, fi.Size(), size)
	}
	return int(fi.Size() / size), nil
}
