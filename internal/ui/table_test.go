package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderTableAlignsColumns(t *testing.T) {
	buf := &bytes.Buffer{}
	RenderTable(buf, []string{"UDID", "STATE"}, [][]string{
		{"00008030-000A", "attached"},
		{"abc", "pinned"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %d lines: %q", len(lines), buf.String())
	}
	if lines[0] != "UDID           STATE" {
		t.Fatalf("unexpected header row: %q", lines[0])
	}
	if lines[2] != "abc            pinned" {
		t.Fatalf("unexpected padded row: %q", lines[2])
	}
	for _, line := range lines {
		if strings.HasSuffix(line, " ") {
			t.Fatalf("line carries trailing spaces: %q", line)
		}
	}
}

func TestRenderTableWithoutHeaders(t *testing.T) {
	buf := &bytes.Buffer{}
	RenderTable(buf, nil, [][]string{{"a", "b"}})
	if got := buf.String(); got != "a  b\n" {
		t.Fatalf("unexpected headerless output: %q", got)
	}
}

func TestRenderTableEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	RenderTable(buf, nil, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for empty table, got %q", buf.String())
	}
}

func TestTrimToWidth(t *testing.T) {
	if got := TrimToWidth("short", 10); got != "short" {
		t.Fatalf("expected unmodified string, got %q", got)
	}
	if got := TrimToWidth("abcdefghij", 5); got != "abcd…" {
		t.Fatalf("unexpected trimmed string: %q", got)
	}
	if got := TrimToWidth("anything", 0); got != "" {
		t.Fatalf("expected empty string for zero width, got %q", got)
	}
}
