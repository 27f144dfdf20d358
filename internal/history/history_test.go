package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestHistory(t *testing.T, dir string) *History {
	t.Helper()
	h, err := Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return h
}

func TestOpenCreatesDBFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "omatheme")
	h := newTestHistory(t, dir)
	defer h.Close()

	if _, err := os.Stat(filepath.Join(dir, "history.db")); err != nil {
		t.Errorf("history.db was not created: %v", err)
	}
	entries, err := h.Recent(10)
	if err != nil {
		t.Fatalf("Recent() on new DB error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Recent() on new DB = %d entries, want 0", len(entries))
	}
}

func TestAddAndRecent(t *testing.T) {
	h := newTestHistory(t, t.TempDir())
	defer h.Close()

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	themes := []string{"Tokyo Night", "Nord", "Rose Pine", "Everforest", "Kanagawa"}
	for i, th := range themes {
		err := h.Add(Entry{
			Operation:  "set",
			Query:      th,
			Theme:      th,
			Outcome:    "applied",
			ExecutedAt: base.Add(time.Duration(i) * time.Minute),
			DurationMS: int64(10 * (i + 1)),
		})
		if err != nil {
			t.Fatalf("Add() entry %d error = %v", i, err)
		}
	}

	entries, err := h.Recent(3)
	if err != nil {
		t.Fatalf("Recent(3) error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Recent(3) returned %d entries, want 3", len(entries))
	}

	want := []string{"Kanagawa", "Everforest", "Rose Pine"}
	for i, w := range want {
		if entries[i].Theme != w {
			t.Errorf("entries[%d].Theme = %q, want %q", i, entries[i].Theme, w)
		}
	}
}

func TestSearch(t *testing.T) {
	h := newTestHistory(t, t.TempDir())
	defer h.Close()

	now := time.Now().UTC()
	rows := []Entry{
		{Operation: "set", Query: "tokyo", Theme: "Tokyo Night", Outcome: "applied"},
		{Operation: "install", Query: "bauhaus", Theme: "Bauhaus", Outcome: "applied"},
		{Operation: "set", Query: "tokyo", Theme: "Tokyo Night", Outcome: "unchanged"},
		{Operation: "remove", Query: "snow", Outcome: "not-extra"},
	}
	for i, e := range rows {
		e.ExecutedAt = now.Add(time.Duration(i) * time.Second)
		if err := h.Add(e); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	tests := []struct {
		pattern string
		want    int
	}{
		{"%Tokyo%", 2},
		{"%bau%", 1},
		{"snow", 1},
		{"%dracula%", 0},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := h.Search(tt.pattern, 100)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.pattern, err)
			}
			if len(got) != tt.want {
				t.Errorf("Search(%q) returned %d entries, want %d", tt.pattern, len(got), tt.want)
			}
		})
	}

	got, _ := h.Search("%Tokyo%", 100)
	if len(got) == 2 && got[0].Outcome != "unchanged" {
		t.Errorf("Search() not ordered most recent first: %+v", got)
	}
}

func TestClear(t *testing.T) {
	h := newTestHistory(t, t.TempDir())
	defer h.Close()

	for i := range 3 {
		if err := h.Add(Entry{Operation: "set", Query: string(rune('a' + i)), Outcome: "applied"}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if err := h.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	after, err := h.Recent(10)
	if err != nil {
		t.Fatalf("Recent() after clear error = %v", err)
	}
	if len(after) != 0 {
		t.Errorf("Recent() after clear = %d entries, want 0", len(after))
	}
}

func TestEntryFields(t *testing.T) {
	h := newTestHistory(t, t.TempDir())
	defer h.Close()

	execAt := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)
	entry := Entry{
		Operation:  "install",
		Query:      "bauhaus",
		Theme:      "Bauhaus",
		Outcome:    "failed",
		Detail:     "git clone failed",
		ExecutedAt: execAt,
		DurationMS: 1234,
		IsError:    true,
	}
	if err := h.Add(entry); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	entries, err := h.Recent(1)
	if err != nil {
		t.Fatalf("Recent(1) error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Recent(1) returned %d entries, want 1", len(entries))
	}

	got := entries[0]
	if got.ID == 0 {
		t.Error("ID should be non-zero after insert")
	}
	if got.Operation != entry.Operation || got.Query != entry.Query || got.Theme != entry.Theme {
		t.Errorf("identity fields = %+v, want %+v", got, entry)
	}
	if got.Outcome != entry.Outcome || got.Detail != entry.Detail || !got.IsError {
		t.Errorf("outcome fields = %+v, want %+v", got, entry)
	}
	if got.DurationMS != entry.DurationMS {
		t.Errorf("DurationMS = %d, want %d", got.DurationMS, entry.DurationMS)
	}
	if got.ExecutedAt.Sub(execAt).Abs() > time.Second {
		t.Errorf("ExecutedAt = %v, want approximately %v", got.ExecutedAt, execAt)
	}
}

func TestEmptyOptionalFields(t *testing.T) {
	h := newTestHistory(t, t.TempDir())
	defer h.Close()

	if err := h.Add(Entry{Operation: "bg-next", Query: "", Outcome: "applied"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	entries, err := h.Recent(1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if entries[0].Theme != "" || entries[0].Detail != "" {
		t.Errorf("optional fields = %q/%q, want empty", entries[0].Theme, entries[0].Detail)
	}
	if entries[0].ExecutedAt.IsZero() {
		t.Error("ExecutedAt should default to now")
	}
}

func TestCloseAndReopen(t *testing.T) {
	dir := t.TempDir()

	h1 := newTestHistory(t, dir)
	for i := range 3 {
		err := h1.Add(Entry{
			Operation:  "set",
			Query:      "theme_" + string(rune('A'+i)),
			Outcome:    "applied",
			ExecutedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if err := h1.Close(); err != nil {
		t.Fatalf("Close() first session error = %v", err)
	}

	h2 := newTestHistory(t, dir)
	defer h2.Close()

	entries, err := h2.Recent(10)
	if err != nil {
		t.Fatalf("Recent() after reopen error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Recent() after reopen = %d entries, want 3", len(entries))
	}
	if entries[0].Query != "theme_C" {
		t.Errorf("entries[0].Query = %q, want %q", entries[0].Query, "theme_C")
	}
}
