package service

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/planforge/planforge/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessShortContentPassesThrough(t *testing.T) {
	c := NewContentSaver(config.ContentSave{Enabled: true, BaseDir: t.TempDir()}, discardLogger())

	res := c.Process("plan-1", "plan-1", "small result", "mapTool")
	if res.Saved || res.FileName != "" {
		t.Fatalf("short content was offloaded: %+v", res)
	}
	if res.Summary != "small result" {
		t.Errorf("summary = %q, want identity", res.Summary)
	}
}

func TestProcessDisabledPassesThrough(t *testing.T) {
	c := NewContentSaver(config.ContentSave{Enabled: false, BaseDir: t.TempDir()}, discardLogger())

	big := strings.Repeat("x", contentThreshold+1)
	res := c.Process("plan-1", "plan-1", big, "mapTool")
	if res.Saved {
		t.Fatal("disabled saver wrote a file")
	}
	if res.Summary != big {
		t.Error("disabled saver altered the content")
	}
}

func TestProcessEmptyContent(t *testing.T) {
	c := NewContentSaver(config.ContentSave{Enabled: true, BaseDir: t.TempDir()}, discardLogger())

	res := c.Process("plan-1", "plan-1", "", "mapTool")
	if res.Summary != "" || res.Saved {
		t.Fatalf("empty content handling = %+v, want empty summary and no save", res)
	}
}

func TestProcessOversizedContentIsStored(t *testing.T) {
	dir := t.TempDir()
	c := NewContentSaver(config.ContentSave{Enabled: true, BaseDir: dir}, discardLogger())

	content := strings.Repeat("a", 1000) + strings.Repeat("b", 2000) + strings.Repeat("c", 1000)
	res := c.Process("plan-2", "root-9", content, "searchTool")

	if !res.Saved {
		t.Fatal("oversized content was not stored")
	}
	if !strings.HasPrefix(res.FileName, "searchTool") || !strings.HasSuffix(res.FileName, ".md") {
		t.Errorf("file name %q should be searchTool<n>.md", res.FileName)
	}

	// Stored under the root plan's directory, full content intact.
	stored, err := os.ReadFile(filepath.Join(dir, "root-9", res.FileName))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(stored) != content {
		t.Error("stored file does not match original content")
	}

	// Summary keeps the head and tail around the marker.
	if !strings.HasPrefix(res.Summary, strings.Repeat("a", summaryPrefixLen)) {
		t.Error("summary missing head of content")
	}
	if !strings.HasSuffix(res.Summary, strings.Repeat("c", summarySuffixLen)) {
		t.Error("summary missing tail of content")
	}
	if !strings.Contains(res.Summary, "[truncated]") {
		t.Error("summary missing truncation marker")
	}
}

func TestProcessStorageFailureDegradesToSummary(t *testing.T) {
	// A file where the base dir should be makes MkdirAll fail.
	base := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(base, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewContentSaver(config.ContentSave{Enabled: true, BaseDir: base}, discardLogger())

	big := strings.Repeat("z", contentThreshold+500)
	res := c.Process("plan-3", "root-3", big, "tool")
	if res.Saved || res.FileName != "" {
		t.Fatalf("expected degraded result, got %+v", res)
	}
	if !strings.Contains(res.Summary, "[truncated]") {
		t.Error("degraded result should still carry the summary")
	}
}

func TestSummarizeIdentityBelowWindow(t *testing.T) {
	s := strings.Repeat("q", summaryPrefixLen+summarySuffixLen)
	if got := summarize(s); got != s {
		t.Error("content within the summary window must pass through unchanged")
	}
}
