// Package lineproc applies a function to each line of a stream in parallel.
// Lines are processed in batches and results are written in input order.
package lineproc

import (
	"bufio"
	"context"
	"io"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize    = 1000
	defaultMaxTokenSize = 1 << 20 // 1MB, longest line accepted
)

// Func transforms a single line, without the trailing newline.
type Func func(line string) (string, error)

// Option configures a Processor.
type Option func(*Processor)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.numWorkers = n
		}
	}
}

// WithBatchSize sets the number of lines handed to a worker at once.
func WithBatchSize(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithMaxTokenSize sets the maximum line length.
func WithMaxTokenSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.maxTokenSize = size
		}
	}
}

// Processor runs a Func over lines.
type Processor struct {
	fn           Func
	numWorkers   int
	batchSize    int
	maxTokenSize int
}

// New creates a processor using one worker per CPU.
func New(fn Func, opts ...Option) *Processor {
	p := &Processor{
		fn:           fn,
		numWorkers:   runtime.NumCPU(),
		batchSize:    defaultBatchSize,
		maxTokenSize: defaultMaxTokenSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type batch struct {
	seq   int
	lines []string
}

// Process reads lines from r, transforms them in parallel and writes one
// result line per input line to w, in input order. The first error stops
// processing.
func (p *Processor) Process(ctx context.Context, r io.Reader, w io.Writer) error {
	var (
		work    = make(chan batch, p.numWorkers)
		results = make(chan batch, p.numWorkers)
		wg      sync.WaitGroup
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(work)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, min(4096, p.maxTokenSize)), p.maxTokenSize)
		var (
			seq   int
			lines []string
		)
		send := func() error {
			select {
			case work <- batch{seq: seq, lines: lines}:
				seq++
				lines = nil
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
			if len(lines) == p.batchSize {
				if err := send(); err != nil {
					return err
				}
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		if len(lines) > 0 {
			return send()
		}
		return nil
	})
	for i := 0; i < p.numWorkers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for b := range work {
				for j, line := range b.lines {
					v, err := p.fn(line)
					if err != nil {
						return err
					}
					b.lines[j] = v
				}
				select {
				case results <- b:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})
	g.Go(func() error {
		var (
			bw      = bufio.NewWriter(w)
			pending = make(map[int][]string)
			next    int
		)
		for b := range results {
			pending[b.seq] = b.lines
			for {
				lines, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				for _, line := range lines {
					if _, err := io.WriteString(bw, line+"\n"); err != nil {
						return err
					}
				}
				next++
			}
		}
		return bw.Flush()
	})
	return g.Wait()
}
