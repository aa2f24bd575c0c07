package pipeline

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ardnew/softps2/hal"
	"github.com/ardnew/softps2/pkg"
	"github.com/ardnew/softps2/ps2"
)

// Consumer drains a Source, passes each byte through a Forwarder, and
// writes the result to a Sink.
//
// Sink failures are logged and the byte is dropped; the consumer never
// retries and never stops because of one. Producer counters, when given,
// are checked after every byte and any growth is logged here, because the
// edge context that increments them must not log.
type Consumer struct {
	source    Source
	forwarder Forwarder
	sink      hal.Sink
	producer  *ps2.Stats

	lastSeen ps2.StatsSnapshot

	received   atomic.Uint64
	written    atomic.Uint64
	sinkErrors atomic.Uint64
}

// ConsumerStats is a point-in-time copy of the consumer's counters.
type ConsumerStats struct {
	Received   uint64 // Bytes taken from the source
	Written    uint64 // Bytes accepted by the sink
	SinkErrors uint64 // Bytes the sink rejected
}

// NewConsumer creates a consumer. producer may be nil.
func NewConsumer(source Source, forwarder Forwarder, sink hal.Sink, producer *ps2.Stats) (*Consumer, error) {
	if source == nil || forwarder == nil || sink == nil {
		return nil, pkg.ErrInvalidParameter
	}
	return &Consumer{
		source:    source,
		forwarder: forwarder,
		sink:      sink,
		producer:  producer,
	}, nil
}

// Step waits for one byte and forwards it.
func (c *Consumer) Step(ctx context.Context) error {
	b, err := c.source.Next(ctx)
	if err != nil {
		return err
	}
	c.received.Add(1)
	c.reportProducer()
	c.forwarder.Forward(b, c.emit)
	return nil
}

// Run forwards bytes until ctx ends or the source is exhausted. An
// exhausted source is a normal end and returns nil.
func (c *Consumer) Run(ctx context.Context) error {
	pkg.LogDebug(pkg.ComponentConsumer, "consumer started")
	defer c.reportProducer()
	for {
		if err := c.Step(ctx); err != nil {
			if errors.Is(err, pkg.ErrClosed) {
				pkg.LogDebug(pkg.ComponentConsumer, "source exhausted",
					"received", c.received.Load())
				return nil
			}
			return err
		}
	}
}

// emit writes one output byte to the sink.
func (c *Consumer) emit(b byte) {
	if err := c.sink.WriteByte(b); err != nil {
		c.sinkErrors.Add(1)
		pkg.LogWarn(pkg.ComponentSink, "error sending byte",
			"byte", b,
			"error", err)
		return
	}
	c.written.Add(1)
	pkg.LogDebug(pkg.ComponentSink, "sent byte", "byte", b)
}

// reportProducer logs overruns and rejected frames counted since the last
// call.
func (c *Consumer) reportProducer() {
	if c.producer == nil {
		return
	}
	now := c.producer.Snapshot()
	if d := now.Overruns - c.lastSeen.Overruns; d > 0 {
		pkg.LogWarn(pkg.ComponentQueue, "queue overrun",
			"dropped", d,
			"total", now.Overruns,
			"error", pkg.ErrOverrun)
	}
	if d := now.Rejected - c.lastSeen.Rejected; d > 0 {
		pkg.LogWarn(pkg.ComponentSampler, "frames rejected",
			"count", d,
			"total", now.Rejected)
	}
	c.lastSeen = now
}

// Stats returns the consumer's counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Received:   c.received.Load(),
		Written:    c.written.Load(),
		SinkErrors: c.sinkErrors.Load(),
	}
}
