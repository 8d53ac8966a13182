package usecase

import (
	"context"
	"time"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
	mid "DemandCast/internal/middleware"
)

const reconnectRetryDelay = time.Second

// PriceCollector consumes the live market stream and pushes ticks through the
// realtime pipeline into the processor.
type PriceCollector struct {
	stream  domrepo.MarketStream
	proc    *PriceProcessor
	metrics domrepo.Metrics
	pipe    *mid.RealtimePipeline
}

func NewPriceCollector(stream domrepo.MarketStream, proc *PriceProcessor, metrics domrepo.Metrics, pipe *mid.RealtimePipeline) *PriceCollector {
	return &PriceCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected reports whether the market stream is connected.
func (c *PriceCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *PriceCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	go c.run(ctx)
	return nil
}

// run drives read sessions until the context ends. The stream closes its
// channels after a read failure, so every recovery needs a fresh pair from
// Read; reusing the old channels would spin on closed-channel receives.
func (c *PriceCollector) run(ctx context.Context) {
	for {
		tickCh, errCh := c.stream.Read(ctx)
		if !c.consume(ctx, tickCh, errCh) {
			return
		}
		if !c.reconnect(ctx) {
			return
		}
	}
}

// consume drains one read session. It returns true when the session ended in
// a stream failure and the collector should reconnect, false on context
// cancellation.
func (c *PriceCollector) consume(ctx context.Context, tickCh <-chan *models.PriceTick, errCh <-chan error) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case err, ok := <-errCh:
			if !ok {
				return true
			}
			if err != nil {
				c.metrics.RecordError("stream")
				return true
			}
		case t, ok := <-tickCh:
			if !ok {
				return true
			}
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.proc.Process(ctx, t)
			}
			c.metrics.RecordLastPrice(t.CommodityID, t.Price)
		}
	}
}

// reconnect retries until the stream is back or the context ends.
func (c *PriceCollector) reconnect(ctx context.Context) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		if err := c.stream.Reconnect(ctx); err == nil {
			return true
		}
		c.metrics.RecordError("stream")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(reconnectRetryDelay):
		}
	}
}

// Processor returns the underlying PriceProcessor for lifecycle management.
func (c *PriceCollector) Processor() *PriceProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *PriceCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
