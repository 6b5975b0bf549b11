package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// DebugCapture dumps the rendered page to disk for troubleshooting selectors.
type DebugCapture struct {
	Enabled bool
	// Dir defaults to os.TempDir().
	Dir string

	logger *zap.Logger
	now    func() time.Time
}

func NewDebugCapture(enabled bool, dir string, logger *zap.Logger) *DebugCapture {
	return &DebugCapture{
		Enabled: enabled,
		Dir:     dir,
		logger:  logger,
		now:     time.Now,
	}
}

// MaybeCapture writes the page markup to WebSearch-debug-<unix-millis>.html.
// Failures are logged and never returned.
func (d *DebugCapture) MaybeCapture(ctx context.Context, s Session) {
	if d == nil || !d.Enabled {
		return
	}

	path, err := d.capture(ctx, s)
	if err != nil {
		d.logger.Error("Failed to save debug page", zap.Error(err))
		return
	}
	d.logger.Info("Saved debug page", zap.String("path", path))
}

func (d *DebugCapture) capture(ctx context.Context, s Session) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("WebSearch-debug-%d.html", d.now().UnixMilli()))

	source, err := s.PageSource(ctx)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
