package core

import (
	"encoding/json"
	"testing"
)

func TestColorRoundTrip(t *testing.T) {
	c := Color{0.2, 0.4, 0.8, 1}
	enc := c.Encode()
	if enc != "[0.2,0.4,0.8,1]" {
		t.Fatalf("unexpected encoding %q", enc)
	}
	got, err := DecodeColor(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != c {
		t.Fatalf("round trip mismatch: %v != %v", got, c)
	}
}

func TestDecodeColorRejectsMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"(0.2, 0.4, 0.8, 1)",
		"[0.2,0.4,0.8]",
		"[0.2,0.4,0.8,1,1]",
		"[2,0,0,1]",
		`["a","b","c","d"]`,
		"__import__('os')",
	} {
		if _, err := DecodeColor(in); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
}

func TestDecodeColorOrDefault(t *testing.T) {
	if got := DecodeColorOrDefault("not a color"); got != DefaultColor {
		t.Fatalf("expected default color, got %v", got)
	}
	if got := DecodeColorOrDefault("[0.95, 0.3, 0.5, 1]"); got != (Color{0.95, 0.3, 0.5, 1}) {
		t.Fatalf("unexpected color %v", got)
	}
}

func TestColorScan(t *testing.T) {
	var c Color
	for _, src := range []any{nil, "garbage", []byte("{}"), 42} {
		if err := c.Scan(src); err != nil {
			t.Fatalf("scan %v: %v", src, err)
		}
		if c != DefaultColor {
			t.Fatalf("scan %v expected default, got %v", src, c)
		}
	}
	if err := c.Scan([]byte("[1,0,0,1]")); err != nil || c != (Color{1, 0, 0, 1}) {
		t.Fatalf("unexpected scan result %v err=%v", c, err)
	}
}

func TestColorJSON(t *testing.T) {
	type wrapper struct {
		Color Color `json:"color"`
	}
	b, err := json.Marshal(wrapper{Color: Color{0, 0.5, 1, 1}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"color":[0,0.5,1,1]}` {
		t.Fatalf("unexpected json %s", b)
	}
	var w wrapper
	if err := json.Unmarshal([]byte(`{"color":[0.1,0.2,0.3,0.4]}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Color != (Color{0.1, 0.2, 0.3, 0.4}) {
		t.Fatalf("unexpected color %v", w.Color)
	}
	if err := json.Unmarshal([]byte(`{"color":[0.1]}`), &w); err == nil {
		t.Fatalf("expected error for short color")
	}
}

func TestPaletteColorWraps(t *testing.T) {
	if PaletteColor(0) != PaletteColor(len(Palette)) {
		t.Fatalf("palette should wrap")
	}
}
