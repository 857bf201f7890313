package draft

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	DefaultCaptainDeadline = 30 * time.Second
	DefaultCaptainTick     = time.Second
)

// MessageHandle points at a message the announcer posted.
type MessageHandle struct {
	ChannelID string
	MessageID string
}

// Announcer tells the players what the watcher did.
type Announcer interface {
	Post(ctx context.Context, text string) (MessageHandle, error)
	Edit(ctx context.Context, h MessageHandle, text string) error
}

// CaptainResolver is the engine entry point the watcher calls on timeout.
type CaptainResolver interface {
	AssignCaptain(ctx context.Context, req CaptainRequest) (CaptainOutcome, error)
}

type WatcherConfig struct {
	SessionKey string // guild id
	// ThreadKey names the session this watcher was started for. Empty means
	// whatever the first read returns.
	ThreadKey string
	Deadline  time.Duration
	Tick      time.Duration
	Reader    PersistedSessionReader
	Announcer Announcer // optional
	Resolver  CaptainResolver
	Clock     clockwork.Clock
	// Describe renders the result announcement; a plain default is used when nil.
	Describe func(CaptainOutcome, error) string
}

type WatchResult string

const (
	WatchStale     WatchResult = "stale"
	WatchResolved  WatchResult = "resolved"
	WatchFailed    WatchResult = "failed"
	WatchCancelled WatchResult = "cancelled"
)

// Watcher forces a random captain draw once a session has waited past its
// deadline. It never signals or is signalled; it notices on its own tick that
// the session moved on and exits.
type Watcher struct {
	cfg  WatcherConfig
	done chan struct{}

	mu     sync.Mutex
	result WatchResult
	err    error
}

// SpawnAutoResolutionWatcher starts a watcher goroutine. Starting a second one
// for the same session needs no stop call: the first one sees the changed
// reset marker or captain slots and exits.
func SpawnAutoResolutionWatcher(ctx context.Context, cfg WatcherConfig) *Watcher {
	if cfg.Deadline <= 0 {
		cfg.Deadline = DefaultCaptainDeadline
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultCaptainTick
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Describe == nil {
		cfg.Describe = describeOutcome
	}
	w := &Watcher{cfg: cfg, done: make(chan struct{})}
	go w.run(ctx)
	return w
}

func (w *Watcher) Done() <-chan struct{} { return w.done }

// Result is meaningful once Done is closed.
func (w *Watcher) Result() (WatchResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result, w.err
}

func (w *Watcher) finish(r WatchResult, err error) {
	w.mu.Lock()
	w.result, w.err = r, err
	w.mu.Unlock()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	cfg := w.cfg
	logger := log.With().Str("component", "watcher").Str("guild", cfg.SessionKey).Logger()

	var (
		start    = cfg.Clock.Now()
		thread   = cfg.ThreadKey
		marker   time.Time
		tracking bool
	)
	for first := true; ; first = false {
		if !first {
			timer := cfg.Clock.NewTimer(cfg.Tick)
			select {
			case <-ctx.Done():
				timer.Stop()
				w.finish(WatchCancelled, ctx.Err())
				return
			case <-timer.Chan():
			}
		}

		snap, ok, err := cfg.Reader.FetchCurrent(ctx, cfg.SessionKey)
		if err != nil {
			if ctx.Err() != nil {
				w.finish(WatchCancelled, ctx.Err())
				return
			}
			// nothing is known yet on a failed first read; retry next tick
			logger.Warn().Err(err).Msg("session read failed")
			continue
		}
		if !ok {
			logger.Debug().Str("thread", thread).Msg("session gone; watcher exiting")
			w.finish(WatchStale, nil)
			return
		}
		if !tracking {
			if thread == "" {
				thread = snap.ThreadKey
			}
			marker = snap.LastReset
			tracking = true
			logger.Debug().Str("thread", thread).Dur("deadline", cfg.Deadline).Msg("watching captain slots")
		}
		if !snap.LastReset.Equal(marker) || snap.ThreadKey != thread || snap.OpenCaptainSlots <= 0 {
			logger.Debug().Str("thread", thread).Msg("session moved on; watcher exiting")
			w.finish(WatchStale, nil)
			return
		}
		if cfg.Clock.Now().Sub(start) > cfg.Deadline {
			w.resolve(ctx, thread)
			return
		}
	}
}

// resolve makes exactly one attempt, whatever its outcome.
func (w *Watcher) resolve(ctx context.Context, thread string) {
	cfg := w.cfg
	logger := log.With().Str("component", "watcher").Str("guild", cfg.SessionKey).Logger()

	var (
		h      MessageHandle
		posted bool
	)
	if cfg.Announcer != nil {
		var err error
		h, err = cfg.Announcer.Post(ctx, fmt.Sprintf("No captain volunteers after %s, drawing at random...", cfg.Deadline))
		if err != nil {
			logger.Warn().Err(err).Msg("announce post failed")
		} else {
			posted = true
		}
	}

	out, err := cfg.Resolver.AssignCaptain(ctx, CaptainRequest{GuildID: cfg.SessionKey, ThreadKey: thread, Auto: true})
	if err != nil {
		logger.Warn().Err(err).Msg("automatic captain draw failed")
		w.finish(WatchFailed, err)
	} else {
		logger.Info().Int("assigned", len(out.Assigned)).Msg("automatic captain draw done")
		w.finish(WatchResolved, nil)
	}

	if cfg.Announcer == nil {
		return
	}
	text := cfg.Describe(out, err)
	if posted {
		err = cfg.Announcer.Edit(ctx, h, text)
	} else {
		_, err = cfg.Announcer.Post(ctx, text)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("announce result failed")
	}
}

func describeOutcome(out CaptainOutcome, err error) string {
	if err != nil {
		return "Could not pick captains automatically: " + err.Error()
	}
	v := out.View
	if v.BlueCaptain != "" && v.RedCaptain != "" {
		return fmt.Sprintf("Captains: blue %s, red %s.", v.BlueCaptain, v.RedCaptain)
	}
	return fmt.Sprintf("Captain assigned; still waiting on %s.", out.Status)
}
