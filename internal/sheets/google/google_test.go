package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{CredentialsJSON: "{}"}, log.Default(log.ComponentSheets))
	if err == nil || err.Error() != "missing google spreadsheet id" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"}, log.Default(log.ComponentSheets))
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     Config
		env     string
		want    string
		wantErr bool
	}{
		{name: "inline json wins", cfg: Config{CredentialsJSON: `{"inline":true}`, CredentialsFile: path}, want: `{"inline":true}`},
		{name: "file", cfg: Config{CredentialsFile: path}, want: `{"type":"service_account"}`},
		{name: "application default file", env: path, want: `{"type":"service_account"}`},
		{name: "missing file", cfg: Config{CredentialsFile: filepath.Join(dir, "nope.json")}, wantErr: true},
		{name: "nothing configured", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", tt.env)
			got, err := loadCredentials(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("credentials = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAppendEntry_Uninitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetBase: DefaultSheetName}

	if _, err := c.AppendEntry(context.Background(), core.LedgerEntry{}); err == nil || err.Error() != "entry has no id" {
		t.Fatalf("expected missing id error, got %v", err)
	}
	_, err := c.AppendEntry(context.Background(), core.LedgerEntry{ID: 1, CreatedAt: time.Now()})
	if err == nil || err.Error() != "sheets service not initialized" {
		t.Fatalf("expected uninitialized error, got %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Ledger", 2025, "2025 Ledger"},
		{"  Ledger ", 2024, "2024 Ledger"},
		{"2023 Ledger", 2025, "2023 Ledger"},
		{"1800 Ledger", 2025, "2025 1800 Ledger"},
		{"", 2025, ""},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestRowRange(t *testing.T) {
	if got := rowRange("2025 Ledger", 7); got != "2025 Ledger!A7:G7" {
		t.Errorf("rowRange = %q", got)
	}
}

func TestInvalidateRowCache(t *testing.T) {
	c := &Client{cacheValidDuration: 10 * time.Minute}

	c.mu.Lock()
	c.cachedSheet = "2025 Ledger"
	c.cachedRowCount = 42
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	c.mu.Unlock()

	c.InvalidateRowCache()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cachedRowCount != 0 || c.cachedSheet != "" {
		t.Errorf("cache not cleared: sheet=%q rows=%d", c.cachedSheet, c.cachedRowCount)
	}
	if time.Now().Before(c.cacheExpiresAt) {
		t.Error("cache should be expired after invalidation")
	}
}

func TestInvalidateRowCache_Concurrent(t *testing.T) {
	c := &Client{cacheValidDuration: time.Minute}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.mu.Lock()
				c.cachedRowCount = n*100 + j
				c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
				c.mu.Unlock()
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.InvalidateRowCache()
			}
		}()
	}
	wg.Wait()
}
