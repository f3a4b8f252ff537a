// Package pipeline implements the header verdict pipeline engine: a packet
// source feeding the gate one header at a time, with verdicts fanned out to
// reporters.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"quillfire.xyz/ipgate/internal/core"
	"quillfire.xyz/ipgate/internal/gate"
	"quillfire.xyz/ipgate/internal/log"
)

// Source produces IPv4 headers. Implementations send onto out until
// exhausted or ctx is cancelled; the pipeline owns closing semantics.
type Source interface {
	Name() string
	Headers(ctx context.Context, out chan<- core.Header) error
}

// Reporter consumes verdicts.
type Reporter interface {
	Name() string
	Report(ctx context.Context, v *core.Verdict) error
	Flush(ctx context.Context) error
}

// Config contains pipeline configuration.
type Config struct {
	Gate       *gate.Gate
	Source     Source
	Reporters  []Reporter
	BufferSize int // header channel buffer size
}

// Pipeline drives headers from the source through the gate, sequentially —
// the gate admits a single session at a time by design.
type Pipeline struct {
	gate      *gate.Gate
	source    Source
	reporters []Reporter
	metrics   *Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	headerChan chan core.Header
}

// New creates a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, core.ErrNoSource
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		gate:       cfg.Gate,
		source:     cfg.Source,
		reporters:  cfg.Reporters,
		metrics:    &Metrics{},
		ctx:        ctx,
		cancel:     cancel,
		headerChan: make(chan core.Header, cfg.BufferSize),
	}, nil
}

// Start launches the source and processing goroutines. A stopped pipeline
// cannot be restarted.
func (p *Pipeline) Start() error {
	if p.ctx.Err() != nil {
		return core.ErrPipelineStopped
	}
	log.GetLogger().WithField("source", p.source.Name()).Info("pipeline starting")

	p.wg.Add(1)
	go p.sourceLoop()

	p.wg.Add(1)
	go p.processLoop()

	return nil
}

// Stop cancels processing, waits for the loops to drain and flushes
// reporters.
func (p *Pipeline) Stop() error {
	p.cancel()
	p.wg.Wait()

	for _, r := range p.reporters {
		if err := r.Flush(context.Background()); err != nil {
			log.GetLogger().WithError(err).WithField("reporter", r.Name()).Error("reporter flush failed")
		}
	}

	log.GetLogger().Info("pipeline stopped")
	return nil
}

// Wait blocks until the source is exhausted and every header has been
// processed, then flushes reporters. Use with finite sources.
func (p *Pipeline) Wait() error {
	p.wg.Wait()
	for _, r := range p.reporters {
		if err := r.Flush(context.Background()); err != nil {
			return fmt.Errorf("reporter %s flush: %w", r.Name(), err)
		}
	}
	return nil
}

// sourceLoop pulls headers from the source into the processing channel.
func (p *Pipeline) sourceLoop() {
	defer p.wg.Done()

	if err := p.source.Headers(p.ctx, p.headerChan); err != nil {
		if p.ctx.Err() == nil {
			log.GetLogger().WithError(err).WithField("source", p.source.Name()).Error("source failed")
		}
	}
	close(p.headerChan)
}

// processLoop runs each header through the gate and reports the verdict.
func (p *Pipeline) processLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return

		case h, ok := <-p.headerChan:
			if !ok {
				return
			}
			p.metrics.Received.Add(1)
			if err := p.processHeader(h); err != nil {
				p.metrics.Errors.Add(1)
				log.GetLogger().WithError(err).Debug("header processing failed")
			}
		}
	}
}

func (p *Pipeline) processHeader(h core.Header) error {
	v, err := p.gate.Process(h)
	if err != nil {
		return fmt.Errorf("gate: %w", err)
	}
	p.metrics.Completed.Add(1)
	if v.Drop {
		p.metrics.Dropped.Add(1)
	} else {
		p.metrics.Passed.Add(1)
	}

	for _, r := range p.reporters {
		if err := r.Report(p.ctx, &v); err != nil {
			p.metrics.ReportErrors.Add(1)
			log.GetLogger().WithError(err).WithField("reporter", r.Name()).Error("reporter failed")
		}
	}
	return nil
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return p.metrics.Snapshot()
}
