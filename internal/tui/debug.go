package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/piquetdestream/piquet/internal/logging"
)

// DebugLogPath is the fixed path for debug logs.
const DebugLogPath = "piquet-debug.log"

// OpenDebugLog creates a debug logger writing JSON lines to path. The
// returned close function syncs and closes the file.
func OpenDebugLog(path string) (*zap.Logger, func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating debug log: %w", err)
	}
	logger := logging.NewWriter(f, zapcore.DebugLevel)
	logger.Debug("debug start", zap.String("log_file", path))
	return logger, func() {
		logger.Debug("debug end")
		_ = logger.Sync()
		_ = f.Close()
	}, nil
}

// logKeyPress records a keystroke with the mode it was handled in.
func (m Model) logKeyPress(msg tea.KeyMsg) {
	m.logger.Debug("key",
		zap.String("key", msg.String()),
		zap.String("mode", m.mode.String()),
		zap.Int("day", m.cursor.Day),
		zap.Int("row", m.cursor.Row),
	)
}
