package core

import (
	"fmt"
	"time"
)

// Period is a lookback window for analytics. Week, month and year are fixed
// widths of 7, 30 and 365 days, not calendar periods.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod defaults an empty string to month.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodMonth, nil
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	default:
		return "", Invalid("period", fmt.Sprintf("unknown period %q", s))
	}
}

// Days is the divisor used for daily averages.
func (p Period) Days() int {
	switch p {
	case PeriodToday:
		return 1
	case PeriodWeek:
		return 7
	case PeriodYear:
		return 365
	default:
		return 30
	}
}

// Since returns the inclusive start of the window ending at now.
func (p Period) Since(now time.Time) time.Time {
	if p == PeriodToday {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	return now.AddDate(0, 0, -p.Days())
}

// MonthStride is the bucket width used by month-over-month comparisons.
const MonthStride = 30 * 24 * time.Hour
