package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/lesson-harvester/internal/entity"
	"github.com/user/lesson-harvester/internal/repository"
	"github.com/user/lesson-harvester/pkg/utils"
)

// DiagnosticsWriter keeps the DOM and screenshot of skipped pages for manual
// inspection. Files are named by role and a URL hash, so a retried node
// overwrites its previous capture.
type DiagnosticsWriter struct {
	dir string
}

var _ repository.DiagnosticsRecorder = (*DiagnosticsWriter)(nil)

func NewDiagnosticsWriter(dir string) *DiagnosticsWriter {
	return &DiagnosticsWriter{dir: dir}
}

// Record returns the path of the HTML capture.
func (d *DiagnosticsWriter) Record(_ context.Context, node entity.CatalogNode, capture *entity.PageCapture) (string, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create diagnostics dir: %w", err)
	}

	base := filepath.Join(d.dir, fmt.Sprintf("%s-%s", node.Role, utils.HashURL(node.URL)[:16]))
	htmlPath := base + ".html"
	header := fmt.Sprintf("<!-- node: %s\n     page: %s -->\n", node.URL, capture.URL)
	if err := os.WriteFile(htmlPath, []byte(header+capture.HTML), 0o644); err != nil {
		return "", fmt.Errorf("failed to write page capture: %w", err)
	}

	if len(capture.Screenshot) > 0 {
		if err := os.WriteFile(base+".png", capture.Screenshot, 0o644); err != nil {
			return htmlPath, fmt.Errorf("failed to write screenshot: %w", err)
		}
	}
	return htmlPath, nil
}
