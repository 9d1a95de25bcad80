package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestStoreAppendEntry(t *testing.T) {
	s := New()
	e := core.LedgerEntry{ID: 1, Kind: core.KindDeposit, Amount: decimal.NewFromInt(10), CreatedAt: time.Now()}

	ref, err := s.AppendEntry(context.Background(), e)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	again, err := s.AppendEntry(context.Background(), e)
	if err != nil || again != ref {
		t.Fatalf("re-export should return the first ref: ref=%q err=%v", again, err)
	}

	e.ID = 2
	if ref, _ := s.AppendEntry(context.Background(), e); ref != "mem:2" {
		t.Fatalf("unexpected ref for second entry: %q", ref)
	}
	if got := len(s.Rows()); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
}

func TestStoreRejectsUnsavedEntry(t *testing.T) {
	if _, err := New().AppendEntry(context.Background(), core.LedgerEntry{}); err == nil {
		t.Fatal("expected error for entry without id")
	}
}
