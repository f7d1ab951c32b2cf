package util

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// TerminalPrinter redraws the latest line of each output in place.
type TerminalPrinter struct {
	outputs   []*Output
	frequency time.Duration
	doneCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once

	writer  *uilive.Writer
	writers []io.Writer
}

func NewTerminalPrinter(frequency time.Duration) *TerminalPrinter {
	return &TerminalPrinter{
		outputs:   make([]*Output, 0),
		frequency: frequency,
		doneCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),

		writer:  uilive.New(),
		writers: make([]io.Writer, 0),
	}
}

func (t *TerminalPrinter) NewOutput() *Output {
	out := NewOutput()
	t.outputs = append(t.outputs, out)
	if len(t.outputs) == 1 {
		t.writers = append(t.writers, t.writer)
	} else {
		t.writers = append(t.writers, t.writer.Newline())
	}
	return out
}

func (p *TerminalPrinter) Start(ctx context.Context) {
	go func() {
		defer close(p.stoppedCh)
		for {
			select {
			case <-p.doneCh:
				p.print()
				return
			case <-ctx.Done():
				p.print()
				return
			case <-time.After(p.frequency):
				p.print()
			}
		}
	}()
}

// Stop prints the final state of every output and waits for the
// printer to exit. It must only be called after Start.
func (p *TerminalPrinter) Stop() {
	p.stopOnce.Do(func() { close(p.doneCh) })
	<-p.stoppedCh
}

func (p *TerminalPrinter) print() {
	for i, output := range p.outputs {
		fmt.Fprint(p.writers[i], output.Get())
	}
	p.writer.Flush()
}

// Output holds the last line written to it. It implements io.Writer so
// a runner can write progress lines without knowing about the terminal.
type Output struct {
	mu        *sync.Mutex
	printable string
}

var _ io.Writer = &Output{}

func NewOutput() *Output {
	return &Output{
		mu:        new(sync.Mutex),
		printable: "",
	}
}

// Write replaces the output string, waiting for the printer if it is
// drawing.
func (p *Output) Write(b []byte) (int, error) {
	p.Set(string(b))
	return len(b), nil
}

func (p *Output) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
}

func (p *Output) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}
