package logagg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memoryHandler struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

func (h *memoryHandler) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.Write(p)
}

func (h *memoryHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *memoryHandler) lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	text := strings.TrimSpace(h.buf.String())
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestAggregatorKeepsPerTagOrder(t *testing.T) {
	agg := New(Config{QueueSize: 16}, nil)
	handlers := make(map[string]*memoryHandler)
	for _, tag := range []string{"server", "download"} {
		h := &memoryHandler{}
		handlers[tag] = h
		if err := agg.Register(tag, h); err != nil {
			t.Fatalf("register %s failed: %v", tag, err)
		}
	}
	agg.Start()

	const producers = 8
	const perProducer = 200
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			tag := "server"
			if p%2 == 1 {
				tag = "download"
			}
			for i := 0; i < perProducer; i++ {
				payload := fmt.Sprintf("p%d-%04d\n", p, i)
				if err := agg.Send(context.Background(), Record{Tag: tag, Payload: []byte(payload)}); err != nil {
					t.Errorf("send failed: %v", err)
					return
				}
			}
		}(p)
	}
	wg.Wait()
	agg.Stop()

	for tag, h := range handlers {
		if !h.closed {
			t.Fatalf("handler %s not closed", tag)
		}
		lines := h.lines()
		if len(lines) != producers/2*perProducer {
			t.Fatalf("tag %s got %d lines", tag, len(lines))
		}
		last := make(map[string]string)
		for _, line := range lines {
			producer := line[:strings.Index(line, "-")]
			if prev, ok := last[producer]; ok && prev >= line {
				t.Fatalf("tag %s out of order: %s after %s", tag, line, prev)
			}
			last[producer] = line
		}
	}
}

func TestAggregatorWarnsOnUnregisteredTag(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	agg := New(Config{}, zap.New(core))
	h := &memoryHandler{}
	if err := agg.Register("server", h); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	agg.Start()

	if err := agg.Send(context.Background(), Record{Tag: "unknown", Payload: []byte("lost\n")}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := agg.Send(context.Background(), Record{Tag: "server", Payload: []byte("kept\n")}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	agg.Stop()

	if got := logs.FilterLevelExact(zapcore.WarnLevel).Len(); got != 1 {
		t.Fatalf("expected one warning, got %d", got)
	}
	if lines := h.lines(); len(lines) != 1 || lines[0] != "kept" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestAggregatorBlocksWhenFull(t *testing.T) {
	agg := New(Config{QueueSize: 1}, nil)
	if err := agg.Register("server", &memoryHandler{}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := agg.Send(context.Background(), Record{Tag: "server"}); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := agg.Send(ctx, Record{Tag: "server"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected send to block until deadline, got %v", err)
	}
	if agg.Pending() != 1 {
		t.Fatalf("expected one pending record, got %d", agg.Pending())
	}

	agg.Start()
	agg.Stop()
	if agg.Pending() != 0 {
		t.Fatalf("expected queue drained, got %d", agg.Pending())
	}
}

func TestAggregatorLifecycle(t *testing.T) {
	agg := New(Config{}, nil)
	agg.Start()
	if err := agg.Register("late", &memoryHandler{}); err == nil {
		t.Fatalf("expected register after start to fail")
	}
	agg.Stop()
	agg.Stop()

	select {
	case <-agg.Done():
	default:
		t.Fatalf("expected consumer to be finished")
	}
	if err := agg.Send(context.Background(), Record{Tag: "server"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	agg := New(Config{}, nil)
	h := &memoryHandler{}
	if err := agg.Register("server", h); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	agg.Stop()
	if !h.closed {
		t.Fatalf("expected handler closed")
	}
}

func TestCoreRoutesEntries(t *testing.T) {
	agg := New(Config{}, nil)
	h := &memoryHandler{}
	if err := agg.Register("server", h); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	agg.Start()

	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		MessageKey: "msg",
		LevelKey:   "level",
		NameKey:    "logger",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	})
	log := zap.New(NewCore(agg, "server", enc, zapcore.InfoLevel)).Named("SubmissionHandler")
	log.Debug("dropped by level")
	log.With(zap.String("sub_id", "42")).Info("submission received")
	agg.Stop()

	lines := h.lines()
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %v", lines)
	}
	for _, want := range []string{`"msg":"submission received"`, `"sub_id":"42"`, `"logger":"SubmissionHandler"`} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("line %s missing %s", lines[0], want)
		}
	}
}

func TestRotatingFileRotatesOnDayChange(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(FileConfig{Path: filepath.Join(dir, "server_logs", "server.log")})
	if err != nil {
		t.Fatalf("new rotating file failed: %v", err)
	}
	day := time.Date(2024, 3, 1, 23, 59, 0, 0, time.Local)
	rf.now = func() time.Time { return day }

	if _, err := rf.Write([]byte("first\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := rf.Write([]byte("same day\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	day = day.Add(2 * time.Minute)
	if _, err := rf.Write([]byte("next day\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "server_logs"))
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected current file and one backup, got %d", len(entries))
	}
	current, err := os.ReadFile(filepath.Join(dir, "server_logs", "server.log"))
	if err != nil {
		t.Fatalf("read current failed: %v", err)
	}
	if string(current) != "next day\n" {
		t.Fatalf("unexpected current content: %q", current)
	}
}
