package logagg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultMaxBackups = 50

// FileConfig describes one rotated log file.
type FileConfig struct {
	Path       string `yaml:"path"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	Compress   bool   `yaml:"compress"`
}

// RotatingFile rotates at every local day boundary and, as a guard, when the
// file exceeds MaxSizeMB.
type RotatingFile struct {
	mu  sync.Mutex
	out *lumberjack.Logger
	day string
	now func() time.Time
}

// NewRotatingFile opens (lazily) a rotating file, creating its directory.
func NewRotatingFile(cfg FileConfig) (*RotatingFile, error) {
	if cfg.Path == "" {
		return nil, errors.New("log file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir failed: %w", err)
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = defaultMaxBackups
	}
	return &RotatingFile{
		out: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			LocalTime:  true,
			Compress:   cfg.Compress,
		},
		now: time.Now,
	}, nil
}

// Write appends p, rotating first when the day changed since the last write.
func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	day := r.now().Format("2006-01-02")
	if r.day != "" && r.day != day {
		if err := r.out.Rotate(); err != nil {
			return 0, fmt.Errorf("rotate log file failed: %w", err)
		}
	}
	r.day = day
	return r.out.Write(p)
}

// Rotate forces a rotation.
func (r *RotatingFile) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.Rotate()
}

// Close closes the current file.
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.Close()
}
