package audio

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/dictype/internal/logger"
)

func soundFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))
	return path
}

func TestPlayBeforeInitIsNoop(t *testing.T) {
	var bell bytes.Buffer
	var calls atomic.Int32
	s := New(Options{
		Bell:    true,
		BellOut: &bell,
		Player:  "player",
		Sounds:  map[Cue]string{CueError: soundFile(t, "error.wav")},
		Run: func(context.Context, string, ...string) error {
			calls.Add(1)
			return nil
		},
		Logger: logger.Discard(),
	})
	s.Play(CueError)
	s.Wait()
	assert.Zero(t, bell.Len())
	assert.Zero(t, calls.Load())
	assert.False(t, s.Initialized())
}

func TestPlayRunsPlayerAndBell(t *testing.T) {
	var bell bytes.Buffer
	var mu sync.Mutex
	var played []string
	path := soundFile(t, "error.wav")
	s := New(Options{
		Bell:    true,
		BellOut: &bell,
		Player:  "player",
		Sounds:  map[Cue]string{CueError: path},
		Run: func(_ context.Context, name string, args ...string) error {
			mu.Lock()
			defer mu.Unlock()
			played = append(played, name+" "+args[0])
			return nil
		},
		Logger: logger.Discard(),
	})
	s.Init()
	s.Init()
	s.Play(CueError)
	s.Play(CueType)
	s.Wait()

	assert.Equal(t, "\a", bell.String())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"player " + path}, played)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("terminal gone") }

func TestBellFailureIsLoggedAndPlaybackContinues(t *testing.T) {
	var logs bytes.Buffer
	var calls atomic.Int32
	s := New(Options{
		Bell:    true,
		BellOut: brokenWriter{},
		Player:  "player",
		Sounds:  map[Cue]string{CueError: soundFile(t, "error.wav")},
		Run: func(context.Context, string, ...string) error {
			calls.Add(1)
			return nil
		},
		Logger: logger.New(logger.WithOutput(&logs), logger.WithLevel(logger.DEBUG)),
	})
	s.Init()
	s.Play(CueError)
	s.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, logs.String(), "failed to ring bell: terminal gone")
}

func TestPoolBoundsConcurrentPlayback(t *testing.T) {
	release := make(chan struct{})
	var running atomic.Int32
	s := New(Options{
		Player:   "player",
		Sounds:   map[Cue]string{CueType: soundFile(t, "type.wav")},
		PoolSize: 2,
		Run: func(context.Context, string, ...string) error {
			running.Add(1)
			<-release
			return nil
		},
		Logger: logger.Discard(),
	})
	s.Init()
	for i := 0; i < 5; i++ {
		s.Play(CueType)
	}
	close(release)
	s.Wait()
	assert.Equal(t, int32(2), running.Load())
}

func TestMissingSoundIsSkipped(t *testing.T) {
	var calls atomic.Int32
	s := New(Options{
		Player: "player",
		Sounds: map[Cue]string{CueCorrect: filepath.Join(t.TempDir(), "missing.wav")},
		Run: func(context.Context, string, ...string) error {
			calls.Add(1)
			return nil
		},
		Logger: logger.Discard(),
	})
	s.Init()
	s.Play(CueCorrect)
	s.Wait()
	assert.Zero(t, calls.Load())
}
