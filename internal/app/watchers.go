package app

import (
	"context"
	"sync"

	"github.com/jose-valero/pug-draft-bot/internal/draft"
)

type runningWatcher struct {
	w      *draft.Watcher
	cancel context.CancelFunc
}

// watcherSet keeps at most one captain countdown per guild. A replaced
// watcher is cancelled; it would exit as stale on its own anyway.
type watcherSet struct {
	mu   sync.Mutex
	byID map[string]runningWatcher // guildID -> watcher
}

func newWatcherSet() *watcherSet {
	return &watcherSet{byID: map[string]runningWatcher{}}
}

func (ws *watcherSet) start(ctx context.Context, guildID string, spawn func(ctx context.Context) *draft.Watcher) *draft.Watcher {
	ctx, cancel := context.WithCancel(ctx)
	w := spawn(ctx)

	ws.mu.Lock()
	prev, had := ws.byID[guildID]
	ws.byID[guildID] = runningWatcher{w: w, cancel: cancel}
	ws.mu.Unlock()

	if had {
		prev.cancel()
	}
	go func() {
		<-w.Done()
		ws.mu.Lock()
		if cur, ok := ws.byID[guildID]; ok && cur.w == w {
			delete(ws.byID, guildID)
		}
		ws.mu.Unlock()
		cancel()
	}()
	return w
}

func (ws *watcherSet) count() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.byID)
}

// stop cancels the guild's watcher, if any.
func (ws *watcherSet) stop(guildID string) {
	ws.mu.Lock()
	rw, ok := ws.byID[guildID]
	delete(ws.byID, guildID)
	ws.mu.Unlock()
	if ok {
		rw.cancel()
	}
}

func (ws *watcherSet) stopAll() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for id, rw := range ws.byID {
		rw.cancel()
		delete(ws.byID, id)
	}
}
