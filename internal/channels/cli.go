// Package channels provides runtime.Listener implementations for each
// supported chat surface.
package channels

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/brainstem-ai/brainstem/internal/runtime"
)

const (
	replPrompt       = "you> "
	cliDispatchQueue = 20
	// Allow queued input to finish when stdin closes before shutting down.
	cliDrainTimeout = 5 * time.Second
)

var _ runtime.Listener = (*CLIListener)(nil)

// CLIWriter writes assistant responses to terminal output.
type CLIWriter struct {
	out io.Writer
}

// WriteMessage writes one assistant message.
func (w *CLIWriter) WriteMessage(_ context.Context, text string) error {
	_, err := fmt.Fprintf(w.out, "assistant> %s\n\n", text)
	return err
}

// CLIListener runs the interactive terminal loop. A first Ctrl-C cancels the
// in-flight turn; a Ctrl-C while idle exits.
type CLIListener struct {
	in  io.Reader
	out io.Writer

	rl       *readline.Instance
	fallback *bufio.Scanner
}

// NewCLI creates a CLI listener over stdin/stdout style streams.
func NewCLI(in io.Reader, out io.Writer) *CLIListener {
	return &CLIListener{in: in, out: out}
}

type inputEvent struct {
	line      string
	interrupt bool
	err       error
}

// Listen reads lines and dispatches them until EOF, /quit, or /exit.
func (c *CLIListener) Listen(ctx context.Context, handler runtime.Handler) error {
	if handler == nil {
		return errors.New("handler is required")
	}
	c.setupInput()
	if c.rl != nil {
		defer c.rl.Close()
	}

	if _, err := fmt.Fprintln(c.out, "Interactive mode. Type /quit or /exit to stop, /new to start over."); err != nil {
		return err
	}

	writer := &CLIWriter{out: c.out}
	dispatchCtx, cancelDispatch := context.WithCancel(ctx)
	dispatcher := runtime.NewDispatcher(handler, cliDispatchQueue)
	if err := dispatcher.Start(dispatchCtx); err != nil {
		cancelDispatch()
		return err
	}
	defer func() {
		cancelDispatch()
		dispatcher.Wait()
	}()

	inputCh := make(chan inputEvent)
	go c.readLoop(inputCh)

	for {
		select {
		case <-ctx.Done():
			dispatcher.Stop()
			return nil
		case event, ok := <-inputCh:
			if !ok {
				c.drain(dispatcher)
				return nil
			}
			if event.interrupt {
				if dispatcher.CancelActive() {
					fmt.Fprintln(c.out, "cancelled")
					continue
				}
				c.drain(dispatcher)
				return nil
			}
			if event.err != nil {
				if errors.Is(event.err, io.EOF) {
					c.drain(dispatcher)
					return nil
				}
				dispatcher.Stop()
				return event.err
			}

			line := strings.TrimSpace(event.line)
			if line == "" {
				continue
			}
			if line == "/quit" || line == "/exit" {
				c.drain(dispatcher)
				return nil
			}
			if err := dispatcher.Enqueue(ctx, &runtime.Message{Text: line}, writer); err != nil {
				return err
			}
		}
	}
}

func (c *CLIListener) drain(dispatcher *runtime.Dispatcher) {
	drainCtx, cancel := context.WithTimeout(context.Background(), cliDrainTimeout)
	defer cancel()
	_ = dispatcher.WaitUntilIdle(drainCtx)
	dispatcher.Stop()
}

func (c *CLIListener) readLoop(out chan<- inputEvent) {
	defer close(out)
	for {
		event := c.readOne()
		if event.err != nil && errors.Is(event.err, io.EOF) {
			return
		}
		out <- event
		if event.err != nil {
			return
		}
	}
}

func (c *CLIListener) readOne() inputEvent {
	if c.rl != nil {
		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				return inputEvent{interrupt: true}
			}
			if errors.Is(err, io.EOF) {
				return inputEvent{err: io.EOF}
			}
			return inputEvent{err: err}
		}
		return inputEvent{line: line}
	}

	if c.fallback.Scan() {
		return inputEvent{line: c.fallback.Text()}
	}
	if err := c.fallback.Err(); err != nil {
		return inputEvent{err: err}
	}
	return inputEvent{err: io.EOF}
}

// setupInput prefers readline when both ends are real terminals, otherwise a
// plain line scanner so piped input works in scripts and tests.
func (c *CLIListener) setupInput() {
	inFile, inOK := c.in.(*os.File)
	outFile, outOK := c.out.(*os.File)
	if inOK && outOK && term.IsTerminal(int(inFile.Fd())) && term.IsTerminal(int(outFile.Fd())) {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          replPrompt,
			HistoryFile:     filepath.Join(os.TempDir(), ".brainstem_history"),
			HistoryLimit:    200,
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
			Stdin:           io.NopCloser(c.in),
			Stdout:          c.out,
			Stderr:          c.out,
		})
		if err == nil {
			c.rl = rl
			return
		}
	}
	c.fallback = bufio.NewScanner(c.in)
}
