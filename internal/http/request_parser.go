package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// UserIDHeader identifies the acting user. Authentication happens in the
// collaborator in front of the API; the header is trusted as given.
const UserIDHeader = "X-User-ID"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Listing limits.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type userKey struct{}

// requireUser rejects requests without a valid user id header.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(UserIDHeader))
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			fail(w, http.StatusUnauthorized, "missing or invalid user id")
			return
		}
		ctx := context.WithValue(r.Context(), userKey{}, id)
		reqLog := log.FromContext(ctx).With(log.FieldUserID, id)
		next.ServeHTTP(w, r.WithContext(log.WithContext(ctx, reqLog)))
	})
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(userKey{}).(int64)
	return id
}

// decodeBody reads a JSON body into dst. Unknown fields are rejected so
// typos surface as validation errors instead of silently doing nothing.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Invalid("body", "request body is empty")
		}
		return core.Invalid("body", fmt.Sprintf("malformed JSON: %v", err))
	}
	return nil
}

// pathID parses the chi URL parameter name as a positive id.
func pathID(r *http.Request, name string) (int64, error) {
	return parseID(name, chi.URLParam(r, name))
}

func parseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid(field, fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

// queryLimit reads ?limit=, defaulting and clamping to the listing bounds.
func queryLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, core.Invalid("limit", "must be a positive integer")
	}
	return min(n, maxListLimit), nil
}

func queryPeriod(r *http.Request) (core.Period, error) {
	return core.ParsePeriod(strings.TrimSpace(r.URL.Query().Get("period")))
}

// sanitizeInput trims and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}
