package service

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/planforge/planforge/internal/config"
)

const (
	// contentThreshold is the length above which tool output is written to
	// disk and replaced by a summary in the conversation record.
	contentThreshold = 3000
	// summaryPrefixLen and summarySuffixLen bound the inline summary built
	// from oversized content.
	summaryPrefixLen = 250
	summarySuffixLen = 200

	truncationMarker = "\n...[truncated]...\n"
)

// ContentSaver offloads oversized tool results to per-plan storage so the
// reasoning context stays small. Results at or under the threshold pass
// through untouched.
type ContentSaver struct {
	cfg config.ContentSave
	log *slog.Logger
}

// SaveResult reports what happened to one piece of content.
type SaveResult struct {
	// Summary is what should replace the content in the execution record.
	// Equal to the original content when nothing was offloaded.
	Summary string
	// FileName is the stored file's name, empty when nothing was written.
	FileName string
	// Saved is true when the content was written to disk.
	Saved bool
}

// NewContentSaver builds a saver rooted at cfg.BaseDir.
func NewContentSaver(cfg config.ContentSave, log *slog.Logger) *ContentSaver {
	return &ContentSaver{cfg: cfg, log: log}
}

// Process decides whether content needs offloading and performs it.
// Files land under <baseDir>/<rootPlanID>/ named
// "<callingContext><5-digit suffix>.md" so siblings of the same plan tree
// share a directory. Storage failures degrade to summary-only: the summary
// is still returned and the failure is logged, never propagated.
func (c *ContentSaver) Process(planID, rootPlanID, content, callingContext string) SaveResult {
	if content == "" {
		c.log.Warn("empty tool result", "plan_id", planID, "context", callingContext)
		return SaveResult{Summary: ""}
	}
	if !c.cfg.Enabled || len(content) <= contentThreshold {
		return SaveResult{Summary: content}
	}

	summary := summarize(content)
	fileName := fmt.Sprintf("%s%d.md", callingContext, 10000+rand.Intn(90000))

	dir := filepath.Join(c.cfg.BaseDir, rootPlanID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.log.Error("content storage dir unavailable",
			"plan_id", planID, "root_plan_id", rootPlanID, "error", err)
		return SaveResult{Summary: summary}
	}
	if err := os.WriteFile(filepath.Join(dir, fileName), []byte(content), 0o644); err != nil {
		c.log.Error("content write failed",
			"plan_id", planID, "file", fileName, "error", err)
		return SaveResult{Summary: summary}
	}

	c.log.Info("oversized tool result stored",
		"plan_id", planID,
		"root_plan_id", rootPlanID,
		"file", fileName,
		"bytes", len(content),
	)
	return SaveResult{Summary: summary, FileName: fileName, Saved: true}
}

// summarize keeps the head and tail of content around a truncation marker.
// Content short enough to show whole is returned as-is.
func summarize(content string) string {
	if len(content) <= summaryPrefixLen+summarySuffixLen {
		return content
	}
	return content[:summaryPrefixLen] + truncationMarker + content[len(content)-summarySuffixLen:]
}
