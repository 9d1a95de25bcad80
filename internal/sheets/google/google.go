package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/log"
	ports "fintrack/internal/sheets"
)

// DefaultSheetName is the base name of the export sheet. The entry year is
// prefixed, so 2025 entries land in "2025 Ledger".
const DefaultSheetName = "Ledger"

const defaultRowCacheTTL = 5 * time.Minute

var _ ports.LedgerExporter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to write it.
// CredentialsJSON wins over CredentialsFile; with neither set the standard
// GOOGLE_APPLICATION_CREDENTIALS file is used.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	log           *log.Logger

	// Row count of cachedSheet, so consecutive appends skip the A:A read.
	mu                 sync.Mutex
	cachedSheet        string
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
}

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing google spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = DefaultSheetName
	}

	credentials, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", spreadsheetID, "sheet", sheet)

	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		sheetBase:          sheet,
		log:                logger,
		cacheValidDuration: defaultRowCacheTTL,
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	if s := strings.TrimSpace(cfg.CredentialsJSON); s != "" {
		return []byte(s), nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set credentials json, credentials file or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// AppendEntry writes e below the last used row of its year's sheet. An empty
// sheet gets the header row first.
func (c *Client) AppendEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	if e.ID <= 0 {
		return "", errors.New("entry has no id")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.sheetBase, e.CreatedAt.Year())

	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.rowCountLocked(ctx, sheet)
	if err != nil {
		return "", err
	}
	if rows == 0 {
		header := make([]any, len(ports.Header))
		for i, h := range ports.Header {
			header[i] = h
		}
		if err := c.writeRow(ctx, sheet, 1, header); err != nil {
			c.invalidateLocked()
			return "", err
		}
		rows = 1
	}

	next := rows + 1
	if err := c.writeRow(ctx, sheet, next, ports.Row(e)); err != nil {
		c.invalidateLocked()
		return "", err
	}
	c.cachedRowCount = next
	return rowRange(sheet, next), nil
}

func (c *Client) writeRow(ctx context.Context, sheet string, row int, values []any) error {
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rowRange(sheet, row), vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row %d in sheet %s: %w", row, sheet, err)
	}
	return nil
}

func (c *Client) rowCountLocked(ctx context.Context, sheet string) (int, error) {
	if c.cachedSheet == sheet && time.Now().Before(c.cacheExpiresAt) {
		return c.cachedRowCount, nil
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get sheet dimensions for %s: %w", sheet, err)
	}
	c.cachedSheet = sheet
	c.cachedRowCount = len(resp.Values)
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	return c.cachedRowCount, nil
}

// InvalidateRowCache forces the next append to re-read the sheet size.
func (c *Client) InvalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
}

func (c *Client) invalidateLocked() {
	c.cachedSheet = ""
	c.cachedRowCount = 0
	c.cacheExpiresAt = time.Time{}
}

func rowRange(sheet string, row int) string {
	last := string(rune('A' + len(ports.Header) - 1))
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, last, row)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a
// 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
