package core

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// Color is an RGBA quadruple with components in [0,1]. It is stored as the
// JSON text "[r,g,b,a]".
type Color [4]float64

// DefaultColor replaces stored colours that cannot be decoded.
var DefaultColor = Color{0.2, 0.4, 0.8, 1}

// Palette cycled through when new envelopes need a distinct colour.
var Palette = []Color{
	{0.95, 0.3, 0.5, 1},
	{0.2, 0.7, 0.9, 1},
	{0.2, 0.8, 0.3, 1},
	{1.0, 0.6, 0.2, 1},
	{0.6, 0.2, 0.8, 1},
	{0.2, 0.8, 0.8, 1},
	{0.9, 0.2, 0.2, 1},
	{0.4, 0.2, 0.9, 1},
	{1.0, 0.8, 0.2, 1},
	{0.8, 0.4, 0.9, 1},
	{0.3, 0.8, 0.6, 1},
	{0.9, 0.5, 0.7, 1},
	{0.5, 0.5, 0.9, 1},
	{0.9, 0.7, 0.3, 1},
	{0.7, 0.9, 0.4, 1},
	{0.8, 0.6, 0.9, 1},
}

var ErrInvalidColor = errors.New("invalid color")

// PaletteColor returns the n-th palette colour, wrapping around.
func PaletteColor(n int) Color {
	if n < 0 {
		n = -n
	}
	return Palette[n%len(Palette)]
}

// Encode renders the colour in its storage form.
func (c Color) Encode() string {
	b, _ := json.Marshal([4]float64(c))
	return string(b)
}

// DecodeColor strictly parses "[r,g,b,a]". Anything else is an error; no
// other syntax is evaluated.
func DecodeColor(s string) (Color, error) {
	var raw []float64
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return Color{}, fmt.Errorf("%w: %v", ErrInvalidColor, err)
	}
	if len(raw) != 4 {
		return Color{}, fmt.Errorf("%w: want 4 components, got %d", ErrInvalidColor, len(raw))
	}
	var c Color
	for i, v := range raw {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return Color{}, fmt.Errorf("%w: component %d out of range", ErrInvalidColor, i)
		}
		c[i] = v
	}
	return c, nil
}

// DecodeColorOrDefault is the tolerant read path for legacy rows.
func DecodeColorOrDefault(s string) Color {
	c, err := DecodeColor(s)
	if err != nil {
		slog.Warn("Stored color could not be decoded, using default", "value", s, "error", err)
		return DefaultColor
	}
	return c
}

// Value implements driver.Valuer.
func (c Color) Value() (driver.Value, error) {
	return c.Encode(), nil
}

// Scan implements sql.Scanner with the tolerant fallback.
func (c *Color) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = DefaultColor
	case string:
		*c = DecodeColorOrDefault(v)
	case []byte:
		*c = DecodeColorOrDefault(string(v))
	default:
		*c = DecodeColorOrDefault(fmt.Sprint(v))
	}
	return nil
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64(c))
}

func (c *Color) UnmarshalJSON(b []byte) error {
	parsed, err := DecodeColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
