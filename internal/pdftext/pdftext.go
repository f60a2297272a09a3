// Package pdftext extracts whitespace-delimited tokens from the text layer
// of a PDF document.
//
// Municipal PDF exporters frequently embed subset fonts that emit each glyph
// as a separate one-character fragment, so the raw text layer of a row like
// "Non-Fatal Shooting 12" arrives as ['N','o','n','-','F','a','t','a','l',...].
// MergeFragments reconstructs real words before any label or row matching
// runs against the token stream.
package pdftext

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MergeFragments merges runs of single-character fragments into tokens.
//
// First pass: consecutive fragments of one visible character accumulate into
// a run; a multi-character fragment flushes the run as one merged token and
// then stands as its own token. Second pass: every merged token is re-split
// on internal whitespace, because two adjacent words can collapse into one
// run when both are emitted character-by-character with no separating
// multi-character fragment.
func MergeFragments(fragments []string) []string {
	var merged []string
	var run strings.Builder

	flush := func() {
		if run.Len() == 0 {
			return
		}
		if tok := strings.TrimSpace(run.String()); tok != "" {
			merged = append(merged, tok)
		}
		run.Reset()
	}

	for _, frag := range fragments {
		if utf8.RuneCountInString(frag) <= 1 {
			run.WriteString(frag)
			continue
		}
		flush()
		if tok := strings.TrimSpace(frag); tok != "" {
			merged = append(merged, tok)
		}
	}
	flush()

	var tokens []string
	for _, tok := range merged {
		tokens = append(tokens, strings.Fields(tok)...)
	}
	return tokens
}

// DocumentTokens opens a PDF and returns the merged token stream of every
// page, in document order.
func DocumentTokens(data []byte) ([]string, error) {
	fragments, err := documentFragments(data)
	if err != nil {
		return nil, err
	}
	return MergeFragments(fragments), nil
}

// PageTokens returns the merged token stream of a single page (1-indexed).
func PageTokens(data []byte, pageNum int) ([]string, error) {
	reader, err := open(data)
	if err != nil {
		return nil, err
	}
	if pageNum < 1 || pageNum > reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d)", pageNum, reader.NumPage())
	}
	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d has no content", pageNum)
	}
	return MergeFragments(pageFragments(page)), nil
}

func documentFragments(data []byte) ([]string, error) {
	reader, err := open(data)
	if err != nil {
		return nil, err
	}

	var fragments []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fragments = append(fragments, pageFragments(page)...)
	}
	return fragments, nil
}

func pageFragments(page pdf.Page) []string {
	content := page.Content()
	fragments := make([]string, 0, len(content.Text))
	for _, text := range content.Text {
		fragments = append(fragments, text.S)
	}
	return fragments
}

func open(data []byte) (*pdf.Reader, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return reader, nil
}
