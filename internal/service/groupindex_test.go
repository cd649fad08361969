package service

import (
	"sync"
	"testing"
)

func TestGroupIndexAssignsSequentially(t *testing.T) {
	g := NewGroupIndex()

	if got := g.GetOrAssign("files"); got != 1 {
		t.Errorf("first group index = %d, want 1", got)
	}
	if got := g.GetOrAssign("search"); got != 2 {
		t.Errorf("second group index = %d, want 2", got)
	}
	if got := g.GetOrAssign("files"); got != 1 {
		t.Errorf("repeat lookup = %d, want stable 1", got)
	}
	if g.Size() != 2 {
		t.Errorf("size = %d, want 2", g.Size())
	}
	if !g.Contains("files") || g.Contains("missing") {
		t.Error("Contains gave wrong membership")
	}
}

func TestGroupIndexReset(t *testing.T) {
	g := NewGroupIndex()
	g.GetOrAssign("files")
	g.GetOrAssign("search")

	g.Reset()

	if g.Size() != 0 {
		t.Fatalf("size after reset = %d, want 0", g.Size())
	}
	if got := g.GetOrAssign("search"); got != 1 {
		t.Errorf("index after reset = %d, want 1", got)
	}
}

func TestGroupIndexConcurrentFirstSight(t *testing.T) {
	g := NewGroupIndex()

	var wg sync.WaitGroup
	results := make([]int, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.GetOrAssign("files")
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got != results[0] {
			t.Fatalf("goroutine %d got index %d, others got %d", i, got, results[0])
		}
	}
	if g.Size() != 1 {
		t.Errorf("size = %d, want 1", g.Size())
	}
}

func TestNormalizeToolKey(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"files.read", "files_read"},
		{"a.b.c", "a.b_c"},
		{"plain", "plain"},
		{"", ""},
		{"trailing.", "trailing_"},
	}
	for _, tt := range tests {
		if got := NormalizeToolKey(tt.ref); got != tt.want {
			t.Errorf("NormalizeToolKey(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}
