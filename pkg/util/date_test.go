package util

import (
    "testing"
    "time"
)

func TestParseTimeAPILayout(t *testing.T) {
    got, ok := ParseTime("2025-03-10 09:35:00")
    if !ok {
        t.Fatalf("expected ok")
    }
    want := time.Date(2025, 3, 10, 9, 35, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeBareDate(t *testing.T) {
    got, ok := ParseTime("2025-03-10")
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Hour() != 0 || got.Day() != 10 {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
    got := ParseTimeDefault("not-a-time", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestNextGridTime(t *testing.T) {
    now := time.Date(2025, 3, 10, 10, 7, 12, 0, time.UTC)
    got := NextGridTime(now, 15*time.Minute)
    want := time.Date(2025, 3, 10, 10, 15, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Fatalf("got %v want %v", got, want)
    }

    onBoundary := time.Date(2025, 3, 10, 10, 15, 0, 0, time.UTC)
    got = NextGridTime(onBoundary, 15*time.Minute)
    want = time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Fatalf("boundary: got %v want %v", got, want)
    }
}

func TestSafeFloat(t *testing.T) {
    if f, ok := SafeFloat("123.45"); !ok || f != 123.45 {
        t.Fatalf("string coercion failed: %v %v", f, ok)
    }
    if f, ok := SafeFloat(float64(7)); !ok || f != 7 {
        t.Fatalf("float passthrough failed: %v %v", f, ok)
    }
    if _, ok := SafeFloat("n/a"); ok {
        t.Fatalf("expected failure on junk")
    }
    if _, ok := SafeFloat(nil); ok {
        t.Fatalf("expected failure on nil")
    }
}

func TestSafeInt(t *testing.T) {
    if n, ok := SafeInt("42"); !ok || n != 42 {
        t.Fatalf("string int failed: %v %v", n, ok)
    }
    if n, ok := SafeInt(99.7); !ok || n != 99 {
        t.Fatalf("expected truncation, got %v %v", n, ok)
    }
    if got := SafeIntDefault(nil, -1); got != -1 {
        t.Fatalf("expected default, got %v", got)
    }
}
