package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"docgraph/pkg/common"
)

// parsePDF extracts plain text from PDF bytes with pdftotext. Page break
// markers (form feeds) are kept so splitElements can attribute content to
// pages.
func parsePDF(input []byte) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "pdfextract-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, input, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}

	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not found in PATH: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(
		ctx,
		"pdftotext",
		"-enc", "UTF-8",
		"-eol", "unix",
		"-q",
		pdfPath,
		"-",
	)
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")

	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("pdftotext timed out")
	}
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w: %s", err, bytes.TrimSpace(out))
	}

	return out, nil
}

var blankLinePattern = regexp.MustCompile(`\n\s*\n`)

const titleMaxRunes = 80

// splitElements turns extracted text into typed page elements. Pages are
// separated by form feeds, elements within a page by blank lines.
func splitElements(text string) []common.Element {
	var elements []common.Element

	for pageIdx, pageText := range strings.Split(text, "\f") {
		page := pageIdx + 1
		for _, block := range blankLinePattern.Split(pageText, -1) {
			block = strings.TrimSpace(block)
			if block == "" {
				continue
			}
			elements = append(elements, common.Element{
				Page:    page,
				Type:    classifyElement(block),
				Content: block,
			})
		}
	}

	return elements
}

// classifyElement applies a layout heuristic: blocks with column
// separators are tables, a single short line without terminal punctuation
// is a title, everything else is a paragraph.
func classifyElement(block string) string {
	lines := strings.Split(block, "\n")

	separators := strings.Count(block, "|") + strings.Count(block, "\t")
	if separators >= 2 {
		return "table"
	}

	if len(lines) == 1 {
		line := strings.TrimSpace(lines[0])
		if len([]rune(line)) < titleMaxRunes && !strings.HasSuffix(line, ".") && !strings.HasSuffix(line, ":") {
			return "title"
		}
	}

	return "paragraph"
}
