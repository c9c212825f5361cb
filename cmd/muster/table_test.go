package main

import (
	"strings"
	"testing"
)

func TestRenderTableTruncatesCells(t *testing.T) {
	long := strings.Repeat("x", 200)
	out := renderTable(
		[]string{"ID", "MESSAGE"},
		[][]string{{"1", long}},
		[]columnAlignment{alignRight},
	)
	if strings.Contains(out, long) {
		t.Fatal("expected long cell truncated")
	}
	if !strings.Contains(out, strings.Repeat("x", cellWidthLimit)+"...") {
		t.Fatalf("expected truncation marker in output:\n%s", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B", "C"},
		[][]string{{"only"}},
		nil,
	)
	if !strings.Contains(out, "only") {
		t.Fatalf("expected row content rendered:\n%s", out)
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"row"}}, nil); out != "" {
		t.Fatalf("expected empty output for empty headers, got %q", out)
	}
}
