package mq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	appErr "judgegate/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the connection state of a ResilientPublisher.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// PublisherConfig holds reconnect settings.
type PublisherConfig struct {
	// Retries is the number of connect attempts made at construction.
	// Default: 5
	Retries int `yaml:"retries"`

	// RetryDelay is the wait after a failed attempt, except the last.
	// Default: 2 seconds
	RetryDelay time.Duration `yaml:"retryDelay"`

	// Timeout is how long a channel may stay idle before the next publish
	// reconnects first.
	// Default: 50 seconds
	Timeout time.Duration `yaml:"timeout"`
}

func (c *PublisherConfig) setDefaults() {
	if c.Retries <= 0 {
		c.Retries = 5
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 50 * time.Second
	}
}

// Hooks observe publisher events. Nil fields are skipped.
type Hooks struct {
	Connected func()
	Published func(err error)
}

// PublisherOption customizes a ResilientPublisher.
type PublisherOption func(*ResilientPublisher)

// WithPublisherClock replaces time.Now.
func WithPublisherClock(now func() time.Time) PublisherOption {
	return func(p *ResilientPublisher) { p.now = now }
}

// WithSleep replaces the wait between construction retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) PublisherOption {
	return func(p *ResilientPublisher) { p.sleep = sleep }
}

// WithHooks registers event callbacks.
func WithHooks(h Hooks) PublisherOption {
	return func(p *ResilientPublisher) { p.hooks = h }
}

// ResilientPublisher owns one broker channel and reconnects it lazily: a
// channel idle past the timeout or broken by a failed publish is replaced by
// the next Publish call. All operations are serialized on one mutex, so a
// reconnect completes before any other call proceeds.
type ResilientPublisher struct {
	connector Connector
	cfg       PublisherConfig
	log       *zap.Logger
	hooks     Hooks

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	state    State
	ch       Channel
	deadline time.Time
	closed   bool
}

// NewResilientPublisher makes up to cfg.Retries connect attempts. When every
// attempt fails the publisher is still returned, in the DISCONNECTED state.
func NewResilientPublisher(ctx context.Context, connector Connector, cfg PublisherConfig, log *zap.Logger, opts ...PublisherOption) *ResilientPublisher {
	cfg.setDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	p := &ResilientPublisher{
		connector: connector,
		cfg:       cfg,
		log:       log.Named("broker").With(zap.String("connector", connector.Name())),
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for attempt := 1; attempt <= p.cfg.Retries; attempt++ {
		err := p.connect(ctx)
		if err == nil {
			break
		}
		if attempt == p.cfg.Retries {
			p.log.Error("can not connect to broker, giving up", zap.Int("attempts", attempt), zap.Error(err))
			break
		}
		p.log.Warn("can not connect to broker, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", p.cfg.RetryDelay),
			zap.Error(err))
		if err := p.sleep(ctx, p.cfg.RetryDelay); err != nil {
			p.log.Error("broker connect retries interrupted", zap.Error(err))
			break
		}
	}
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// connect replaces the current channel. Caller holds p.mu.
func (p *ResilientPublisher) connect(ctx context.Context) error {
	p.dropChannel()
	p.state = StateConnecting
	ch, err := p.connector.Connect(ctx)
	if err != nil {
		p.state = StateDisconnected
		return err
	}
	p.ch = ch
	p.state = StateConnected
	p.deadline = p.now().Add(p.cfg.Timeout)
	p.log.Info("connected to broker")
	if p.hooks.Connected != nil {
		p.hooks.Connected()
	}
	return nil
}

// dropChannel closes the current channel, if any. Caller holds p.mu.
func (p *ResilientPublisher) dropChannel() {
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			p.log.Debug("close broker channel failed", zap.Error(err))
		}
		p.ch = nil
	}
	p.state = StateDisconnected
}

// ensureConnected is the single place deciding whether to reconnect.
// Caller holds p.mu.
func (p *ResilientPublisher) ensureConnected(ctx context.Context) error {
	if p.state == StateConnected && p.now().After(p.deadline) {
		p.log.Info("broker channel idle past timeout, reconnecting")
		p.dropChannel()
	}
	if p.state == StateConnected {
		return nil
	}
	return p.connect(ctx)
}

// Publish serializes task as JSON and publishes it. The failure is logged
// with the payload and returned classified; the channel is then marked
// disconnected so the next call reconnects.
func (p *ResilientPublisher) Publish(ctx context.Context, task any) error {
	body, err := json.Marshal(task)
	if err != nil {
		return appErr.Wrapf(err, appErr.PublishFailed, "encode task failed: %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return appErr.Newf(appErr.BrokerUnavailable, "publisher is closed")
	}

	err = p.publishLocked(ctx, body)
	p.deadline = p.now().Add(p.cfg.Timeout)
	if p.hooks.Published != nil {
		p.hooks.Published(err)
	}
	return err
}

func (p *ResilientPublisher) publishLocked(ctx context.Context, body []byte) error {
	if err := p.ensureConnected(ctx); err != nil {
		p.log.Debug("send message", zap.ByteString("body", body))
		p.log.Error("connect to broker failed", zap.Error(err))
		return appErr.Wrapf(err, appErr.BrokerUnavailable, "broker unavailable: %v", err)
	}

	msg := NewMessage(body)
	msg.ID = uuid.NewString()
	msg.Timestamp = p.now()
	if err := p.ch.Publish(ctx, msg); err != nil {
		p.log.Debug("send message", zap.ByteString("body", body))
		p.log.Error("send message failed", zap.Error(err))
		p.dropChannel()
		return appErr.Wrapf(err, appErr.PublishFailed, "publish failed: %v", err)
	}
	return nil
}

// State returns the current connection state.
func (p *ResilientPublisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Close closes the channel; further publishes fail.
func (p *ResilientPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var err error
	if p.ch != nil {
		err = p.ch.Close()
		p.ch = nil
	}
	p.state = StateDisconnected
	return err
}
