package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dictype/internal/logger"
)

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("speech did not finish")
	}
}

func TestSpeakAsyncPassesText(t *testing.T) {
	var mu sync.Mutex
	var got []string
	run := func(_ context.Context, name string, args ...string) error {
		mu.Lock()
		defer mu.Unlock()
		got = append([]string{name}, args...)
		return nil
	}
	c := NewCommand("say", []string{"-r", "180"}, run, logger.Discard())
	waitClosed(t, c.SpeakAsync(context.Background(), "Hello there."))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"say", "-r", "180", "Hello there."}, got)
}

func TestSpeakAsyncResolvesOnError(t *testing.T) {
	run := func(context.Context, string, ...string) error {
		return errors.New("no audio device")
	}
	c := NewCommand("say", nil, run, logger.Discard())
	waitClosed(t, c.SpeakAsync(context.Background(), "Hello."))
}

func TestNewUtteranceCancelsPrevious(t *testing.T) {
	started := make(chan struct{}, 2)
	run := func(ctx context.Context, _ string, args ...string) error {
		started <- struct{}{}
		if args[len(args)-1] == "first" {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}
	c := NewCommand("say", nil, run, logger.Discard())
	first := c.SpeakAsync(context.Background(), "first")
	<-started
	second := c.SpeakAsync(context.Background(), "second")
	waitClosed(t, first)
	waitClosed(t, second)
}

func TestStopInterrupts(t *testing.T) {
	run := func(ctx context.Context, _ string, _ ...string) error {
		<-ctx.Done()
		return ctx.Err()
	}
	c := NewCommand("say", nil, run, logger.Discard())
	done := c.SpeakAsync(context.Background(), "long text")
	c.Stop()
	waitClosed(t, done)
}

func TestEmptyTextAndNop(t *testing.T) {
	called := false
	c := NewCommand("say", nil, func(context.Context, string, ...string) error {
		called = true
		return nil
	}, logger.Discard())
	waitClosed(t, c.SpeakAsync(context.Background(), ""))
	assert.False(t, called)

	var s Speaker = Nop{}
	waitClosed(t, s.SpeakAsync(context.Background(), "x"))
}

func TestDefaultCommand(t *testing.T) {
	c := NewCommand("", nil, nil, nil)
	require.Equal(t, DefaultCommand, c.name)
	assert.Equal(t, DefaultArgs, c.args)
}
