package main

import (
	"encoding/hex"
	"testing"

	"github.com/rs/zerolog"
)

func TestLogLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for value, want := range cases {
		if got := logLevel(value); got != want {
			t.Errorf("logLevel(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestResolveSigningKey_Hex(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}

	key, err := resolveSigningKey(hex.EncodeToString(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("expected 32 decoded bytes, got %d", len(key))
	}
	if hex.EncodeToString(key) != hex.EncodeToString(raw) {
		t.Errorf("key mismatch: got %x, want %x", key, raw)
	}
}

func TestResolveSigningKey_Passphrase(t *testing.T) {
	key, err := resolveSigningKey("not-valid-hex!!!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(key) != "not-valid-hex!!!" {
		t.Errorf("expected the passphrase verbatim, got %q", key)
	}
}

func TestResolveSigningKey_Empty(t *testing.T) {
	if _, err := resolveSigningKey(""); err == nil {
		t.Fatal("expected an error for an empty key")
	}
}
