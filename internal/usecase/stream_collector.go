package usecase

import (
	"context"
	"time"

	"MoodPulse/internal/domain/models"
	domrepo "MoodPulse/internal/domain/repository"
	domsvc "MoodPulse/internal/domain/service"
	mid "MoodPulse/internal/middleware"
)

const maxReconnectBackoff = 30 * time.Second

// StreamCollector consumes the live market stream and routes samples
// through the ingest pipeline into the price store. It reconnects on
// stream errors and stays up for the process lifetime.
type StreamCollector struct {
	stream  domsvc.MarketStream
	proc    *SampleProcessor
	metrics domrepo.Metrics
	pipe    *mid.RealtimePipeline
	backoff time.Duration // initial reconnect backoff
}

func NewStreamCollector(stream domsvc.MarketStream, proc *SampleProcessor, metrics domrepo.Metrics, pipe *mid.RealtimePipeline) *StreamCollector {
	return &StreamCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe, backoff: time.Second}
}

// IsConnected returns true if the market stream is connected.
func (c *StreamCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *StreamCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	smCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, smCh, errCh)
	return nil
}

func (c *StreamCollector) consume(ctx context.Context, smCh <-chan *models.Sample, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				// Reader exited and closed its channels; get fresh ones.
				if smCh, errCh = c.reopen(ctx); smCh == nil {
					return
				}
				continue
			}
			if err != nil {
				c.metrics.RecordError("stream")
				if smCh, errCh = c.reopen(ctx); smCh == nil {
					return
				}
			}
		case s, ok := <-smCh:
			if !ok {
				if smCh, errCh = c.reopen(ctx); smCh == nil {
					return
				}
				continue
			}
			if s == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, s)
			} else {
				_ = c.proc.Process(ctx, s)
			}
		}
	}
}

// reopen reconnects with exponential backoff until the stream is healthy
// or the context ends. Nil channels signal shutdown to the caller.
func (c *StreamCollector) reopen(ctx context.Context) (<-chan *models.Sample, <-chan error) {
	backoff := c.backoff
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		if err := c.stream.Reconnect(ctx); err == nil {
			return c.stream.Read(ctx)
		}
		c.metrics.RecordError("stream_reconnect")
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(backoff):
		}
		if backoff < maxReconnectBackoff {
			backoff *= 2
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *StreamCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
