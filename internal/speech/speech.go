// Package speech speaks prompts through an external text-to-speech command.
package speech

import (
	"context"
	"os/exec"
	"sync"

	"github.com/verte-zerg/dictype/internal/logger"
)

// Speaker speaks text. Only one utterance plays at a time: starting a new one
// stops the previous.
type Speaker interface {
	// Speak starts speaking text and returns immediately.
	Speak(text string)
	// SpeakAsync starts speaking text. The returned channel is closed when
	// speaking ends for any reason, including failure and cancellation.
	SpeakAsync(ctx context.Context, text string) <-chan struct{}
	// Stop interrupts the current utterance.
	Stop()
}

// DefaultCommand is the text-to-speech program used when none is configured.
const DefaultCommand = "espeak-ng"

// DefaultArgs selects an English voice at a slightly slower than normal rate.
var DefaultArgs = []string{"-v", "en-us", "-s", "155"}

// Runner runs one utterance to completion.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Command speaks by running an external program with the text as last argument.
type Command struct {
	name string
	args []string
	run  Runner
	log  *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

// NewCommand returns a Command speaker. A nil runner executes the program.
func NewCommand(name string, args []string, run Runner, log *logger.Logger) *Command {
	if name == "" {
		name = DefaultCommand
		if args == nil {
			args = DefaultArgs
		}
	}
	if run == nil {
		run = execRunner
	}
	if log == nil {
		log = logger.Default()
	}
	return &Command{name: name, args: append([]string(nil), args...), run: run, log: log.WithPrefix("speech")}
}

// Speak implements Speaker.
func (c *Command) Speak(text string) {
	c.SpeakAsync(context.Background(), text)
}

// SpeakAsync implements Speaker.
func (c *Command) SpeakAsync(ctx context.Context, text string) <-chan struct{} {
	done := make(chan struct{})
	if text == "" {
		close(done)
		return done
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	args := append(append([]string(nil), c.args...), text)
	go func() {
		defer close(done)
		defer c.release(seq, cancel)
		if err := c.run(runCtx, c.name, args...); err != nil && runCtx.Err() == nil {
			c.log.Warn("%s failed: %v", c.name, err)
		}
	}()
	return done
}

// Stop implements Speaker.
func (c *Command) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Command) release(seq uint64, cancel context.CancelFunc) {
	cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq == seq {
		c.cancel = nil
	}
}

// Nop is a Speaker that says nothing.
type Nop struct{}

// Speak implements Speaker.
func (Nop) Speak(string) {}

// SpeakAsync implements Speaker.
func (Nop) SpeakAsync(context.Context, string) <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}

// Stop implements Speaker.
func (Nop) Stop() {}
