// Package audio plays short feedback cues.
package audio

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/verte-zerg/dictype/internal/logger"
)

// Cue names a feedback sound.
type Cue string

const (
	CueType    Cue = "type"
	CueError   Cue = "error"
	CueCorrect Cue = "correct"
)

// Player plays cues without blocking the caller.
type Player interface {
	Play(cue Cue)
}

// DefaultPoolSize is how many copies of one cue may play at once.
const DefaultPoolSize = 5

// Options configures a Subsystem.
type Options struct {
	// Bell rings the terminal bell on error cues.
	Bell bool
	// BellOut receives the bell character; stderr when nil.
	BellOut io.Writer
	// Player is an external program run with a sound file path, e.g. "paplay".
	Player string
	// Sounds maps cues to sound files for Player.
	Sounds map[Cue]string
	// PoolSize bounds concurrent playback per cue.
	PoolSize int
	// Run overrides process execution.
	Run func(ctx context.Context, name string, args ...string) error
	Logger *logger.Logger
}

// Subsystem is the audio cue player. It is inert until Init is called.
type Subsystem struct {
	opts Options
	log  *logger.Logger

	mu          sync.Mutex
	initialized bool
	pools       map[Cue]*semaphore.Weighted
	wg          sync.WaitGroup
}

// New returns an uninitialized Subsystem.
func New(opts Options) *Subsystem {
	if opts.BellOut == nil {
		opts.BellOut = os.Stderr
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = DefaultPoolSize
	}
	if opts.Run == nil {
		opts.Run = func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Subsystem{opts: opts, log: log.WithPrefix("audio")}
}

// Init prepares playback pools. Calling it again has no effect.
func (s *Subsystem) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return
	}
	s.pools = make(map[Cue]*semaphore.Weighted, len(s.opts.Sounds))
	if s.opts.Player != "" {
		if _, err := exec.LookPath(s.opts.Player); err != nil {
			s.log.Warn("audio player %q not found: %v", s.opts.Player, err)
		}
		for cue, path := range s.opts.Sounds {
			if _, err := os.Stat(path); err != nil {
				s.log.Warn("sound for %s cue unavailable: %v", cue, err)
				continue
			}
			s.pools[cue] = semaphore.NewWeighted(int64(s.opts.PoolSize))
		}
	}
	s.initialized = true
	s.log.Debug("audio initialized with %d sounds", len(s.pools))
}

// Initialized reports whether Init has run.
func (s *Subsystem) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Play implements Player. Before Init it does nothing. When every slot of a
// cue is busy the cue is dropped.
func (s *Subsystem) Play(cue Cue) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		s.log.Debug("audio not initialized, dropping %s cue", cue)
		return
	}
	pool := s.pools[cue]
	s.mu.Unlock()

	if s.opts.Bell && cue == CueError {
		if _, err := io.WriteString(s.opts.BellOut, "\a"); err != nil {
			s.log.Debug("failed to ring bell: %v", err)
		}
	}
	if pool == nil || !pool.TryAcquire(1) {
		return
	}
	path := s.opts.Sounds[cue]
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer pool.Release(1)
		if err := s.opts.Run(context.Background(), s.opts.Player, path); err != nil {
			s.log.Warn("failed to play %s cue: %v", cue, err)
		}
	}()
}

// Wait blocks until every started cue has finished.
func (s *Subsystem) Wait() {
	s.wg.Wait()
}

// Nop is a Player that plays nothing.
type Nop struct{}

// Play implements Player.
func (Nop) Play(Cue) {}
