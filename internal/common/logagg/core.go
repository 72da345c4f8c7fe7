package logagg

import (
	"context"

	"go.uber.org/zap/zapcore"
)

// queueCore is a zapcore.Core that hands encoded entries to an Aggregator
// instead of writing them. It mirrors zap's ioCore.
type queueCore struct {
	zapcore.LevelEnabler
	enc zapcore.Encoder
	agg *Aggregator
	tag string
}

// NewCore returns a core routing every entry to agg under tag.
func NewCore(agg *Aggregator, tag string, enc zapcore.Encoder, enab zapcore.LevelEnabler) zapcore.Core {
	return &queueCore{
		LevelEnabler: enab,
		enc:          enc,
		agg:          agg,
		tag:          tag,
	}
}

func (c *queueCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.clone()
	for i := range fields {
		fields[i].AddTo(clone.enc)
	}
	return clone
}

func (c *queueCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *queueCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	// the buffer goes back to zap's pool, the queue needs its own copy
	payload := make([]byte, buf.Len())
	copy(payload, buf.Bytes())
	buf.Free()

	return c.agg.Send(context.Background(), Record{Tag: c.tag, Payload: payload})
}

// Sync is a no-op; durability is the consumer's concern.
func (c *queueCore) Sync() error {
	return nil
}

func (c *queueCore) clone() *queueCore {
	return &queueCore{
		LevelEnabler: c.LevelEnabler,
		enc:          c.enc.Clone(),
		agg:          c.agg,
		tag:          c.tag,
	}
}
