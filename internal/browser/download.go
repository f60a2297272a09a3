package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

// CaptureDownload arms the tab to save downloads into a temp directory, runs
// trigger (usually a Click step hitting an export button), and waits for a
// completed file to appear. Chrome writes in-progress downloads with a
// .crdownload suffix, so a bare file is a finished one.
func (s *Session) CaptureDownload(ctx context.Context, trigger func(ctx context.Context) error, wait time.Duration) ([]byte, string, error) {
	dir, err := os.MkdirTemp("", "shootdash-export-*")
	if err != nil {
		return nil, "", fmt.Errorf("create download dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	arm := cdpbrowser.SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
		WithDownloadPath(dir)
	if err := s.Run(ctx, arm); err != nil {
		return nil, "", fmt.Errorf("arm download capture: %w", err)
	}

	if err := trigger(ctx); err != nil {
		return nil, "", err
	}

	deadline := time.Now().Add(wait)
	for {
		if name, ok := completedDownload(dir); ok {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return nil, "", fmt.Errorf("read download: %w", err)
			}
			return data, name, nil
		}
		if time.Now().After(deadline) {
			return nil, "", &dashboard.TimeoutError{Op: "export download", Budget: wait}
		}
		select {
		case <-ctx.Done():
			return nil, "", fmt.Errorf("download wait canceled: %w", ctx.Err())
		case <-time.After(250 * time.Millisecond):
		}
	}
}

func completedDownload(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".crdownload") || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		return name, true
	}
	return "", false
}
