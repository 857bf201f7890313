package draft

import (
	"context"
	"sync"
	"time"
)

// Snapshot is what a watcher needs to decide whether it is still relevant.
type Snapshot struct {
	LastReset        time.Time
	OpenCaptainSlots int
	ThreadKey        string
}

// PersistedSessionReader returns the current state of the session stored
// under key, ok=false when there is none.
type PersistedSessionReader interface {
	FetchCurrent(ctx context.Context, key string) (snap Snapshot, ok bool, err error)
}

// Store owns the in-progress draft of every guild. Reads share the lock;
// every mutation runs alone and does no I/O while holding it.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session // guildID -> session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Put installs s for its guild, replacing whatever was there.
func (st *Store) Put(s *Session) {
	st.mu.Lock()
	st.sessions[s.GuildID] = s
	st.mu.Unlock()
}

func (st *Store) View(guildID string) (View, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[guildID]
	if !ok {
		return View{}, false
	}
	return s.View(), true
}

// Update runs fn on a copy of the guild's session and keeps the copy only if
// fn succeeds. A session that is complete afterwards leaves the table.
func (st *Store) Update(guildID string, fn func(s *Session) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	cur, ok := st.sessions[guildID]
	if !ok {
		return ErrSessionNotFound
	}
	work := cur.Clone()
	if err := fn(work); err != nil {
		return err
	}
	if work.Complete() {
		delete(st.sessions, guildID)
	} else {
		st.sessions[guildID] = work
	}
	return nil
}

// Remove drops the guild's session if it is still the one with sessionID.
func (st *Store) Remove(guildID, sessionID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[guildID]
	if !ok || s.ID != sessionID {
		return false
	}
	delete(st.sessions, guildID)
	return true
}

// Drafting reports whether p is part of the guild's current draft.
func (st *Store) Drafting(guildID string, p PlayerID) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[guildID]
	return ok && s.isMember(p)
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// FetchCurrent implements PersistedSessionReader keyed by guild id.
func (st *Store) FetchCurrent(ctx context.Context, guildID string) (Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, false, err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[guildID]
	if !ok {
		return Snapshot{}, false, nil
	}
	return Snapshot{
		LastReset:        s.lastResetAt,
		OpenCaptainSlots: s.OpenCaptainSlots(),
		ThreadKey:        s.ThreadKey,
	}, true, nil
}
