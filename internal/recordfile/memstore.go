package recordfile

import "fmt"

// MemStore is an in-memory Store used by tests. It round-trips every record
// through the codec so encoding bugs surface without touching disk, and it
// exposes failure hooks for exercising partial-write recovery paths.
type MemStore[T any] struct {
	codec Codec[T]
	recs  [][]byte

	// AppendErr and RewriteErr, when set, are consulted before the
	// operation; a non-nil return aborts it with that error.
	AppendErr  func(rec T) error
	RewriteErr func(offset int64) error
}

func NewMem[T any](codec Codec[T]) *MemStore[T] {
	return &MemStore[T]{codec: codec}
}

func (s *MemStore[T]) Append(rec T) error {
	if s.AppendErr != nil {
		if err := s.AppendErr(rec); err != nil {
			return err
		}
	}
	buf := make([]byte, s.codec.Size())
	if err := s.codec.Encode(rec, buf); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	s.recs = append(s.recs, buf)
	return nil
}

func (s *MemStore[T]) FindFirst(match func(T) bool) (T, int64, error) {
	var zero T
	for i, buf := range s.recs {
		rec, err := s.codec.Decode(buf)
		if err != nil {
			return zero, 0, fmt.Errorf("%w: record %d: %v", ErrCorrupt, i, err)
		}
		if match(rec) {
			return rec, int64(i) * int64(s.codec.Size()), nil
		}
	}
	return zero, 0, ErrNotFound
}

func (s *MemStore[T]) ReadAll() ([]T, error) {
	var out []T
	for i, buf := range s.recs {
		rec, err := s.codec.Decode(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorrupt, i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *MemStore[T]) RewriteAt(offset int64, rec T) error {
	if s.RewriteErr != nil {
		if err := s.RewriteErr(offset); err != nil {
			return err
		}
	}
	size := int64(s.codec.Size())
	i := offset / size
	if offset%size != 0 || i < 0 || i >= int64(len(s.recs)) {
		return fmt.Errorf("rewrite at %d: no record there", offset)
	}
	buf := make([]byte, size)
	if err := s.codec.Encode(rec, buf); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	s.recs[i] = buf
	return nil
}

func (s *MemStore[T]) Compact(drop func(T) bool) (int, error) {
	kept := s.recs[:0:0]
	removed := 0
	for i, buf := range s.recs {
		rec, err := s.codec.Decode(buf)
		if err != nil {
			return 0, fmt.Errorf("%w: record %d: %v", ErrCorrupt, i, err)
		}
		if drop(rec) {
			removed++
			continue
		}
		kept = append(kept, buf)
	}
	s.recs = kept
	return removed, nil
}

func (s *MemStore[T]) Count() (int, error) {
	return len(s.recs), nil
}
