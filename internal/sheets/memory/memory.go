package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

var _ sheets.LedgerExporter = (*Store)(nil)

// Store keeps exported rows in memory. Exporting the same entry twice returns
// the first row reference and writes nothing.
type Store struct {
	mu   sync.Mutex
	rows [][]any
	refs map[int64]string
}

func New() *Store {
	return &Store{refs: make(map[int64]string)}
}

func (s *Store) AppendEntry(_ context.Context, e core.LedgerEntry) (string, error) {
	if e.ID <= 0 {
		return "", errors.New("entry has no id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.refs[e.ID]; ok {
		return ref, nil
	}
	s.rows = append(s.rows, sheets.Row(e))
	ref := fmt.Sprintf("mem:%d", len(s.rows))
	s.refs[e.ID] = ref
	return ref, nil
}

// Rows returns a copy of the exported rows in write order.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	copy(out, s.rows)
	return out
}
