package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"user@example.com", true},
		{"first.last@mail.co.uk", true},
		{"nope", false},
		{"a@b", false},
		{"@example.com", false},
	}
	for _, tc := range cases {
		err := ValidateEmail(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("12345"); !errors.Is(err, ErrShortPassword) {
		t.Fatalf("expected short password error, got %v", err)
	}
	if err := ValidatePassword("123456"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestParseDeadline(t *testing.T) {
	d, err := ParseDeadline("")
	if err != nil || d != nil {
		t.Fatalf("empty deadline should be nil, got %v err=%v", d, err)
	}
	d, err = ParseDeadline("2025-12-31")
	if err != nil || d == nil || d.Year() != 2025 || d.Month() != 12 || d.Day() != 31 {
		t.Fatalf("unexpected deadline %v err=%v", d, err)
	}
	if _, err := ParseDeadline("31/12/2025"); !errors.Is(err, ErrInvalidDeadline) {
		t.Fatalf("expected invalid deadline, got %v", err)
	}
}

func TestSavingsPlanHelpers(t *testing.T) {
	deadline := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
	p := SavingsPlan{
		TargetAmount:  decimal.NewFromInt(400),
		CurrentAmount: decimal.NewFromInt(100),
		Deadline:      &deadline,
	}
	if !p.Progress().Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected 25%% progress, got %s", p.Progress())
	}
	if !p.Remaining().Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected 300 remaining, got %s", p.Remaining())
	}
	now := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	if got := p.DaysLeft(now); got != 10 {
		t.Fatalf("expected 10 days left, got %d", got)
	}
	if got := p.DaysLeft(deadline.AddDate(0, 0, 5)); got != 0 {
		t.Fatalf("past deadline should report 0, got %d", got)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{NotFound("card", 1), KindNotFound},
		{&NotFoundError{Message: "sender not found"}, KindNotFound},
		{&InsufficientFundsError{Available: decimal.NewFromInt(3)}, KindInsufficientFunds},
		{&TargetExceededError{MaxAllowed: decimal.NewFromInt(3)}, KindValidation},
		{Invalid("amount", "must be positive"), KindValidation},
		{ErrEmptyName, KindValidation},
		{errors.New("disk on fire"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("%v: expected %s, got %s", tc.err, tc.want, got)
		}
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(errors.New("sql: connection refused")); got != "operation failed" {
		t.Fatalf("internal errors must be generic, got %q", got)
	}
	if got := UserMessage(&NotFoundError{Message: "sender not found"}); got != "sender not found" {
		t.Fatalf("unexpected message %q", got)
	}
	msg := UserMessage(&TargetExceededError{MaxAllowed: decimal.NewFromInt(50)})
	if msg != "amount exceeds plan target, maximum allowed: 50.00" {
		t.Fatalf("unexpected message %q", msg)
	}
}
