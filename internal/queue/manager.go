package queue

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Manager struct {
	queues map[string]*Queue
	mu     sync.Mutex
	now    func() time.Time
}

// manager of queues, one per guild and game mode
func NewManager() *Manager {

	return &Manager{
		queues: make(map[string]*Queue),
		now:    time.Now,
	}
}

// EnsureQueue returns the guild's queue for name, creating it when missing.
func (m *Manager) EnsureQueue(guildID, name string, capacity int) (*Queue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := queueID(guildID, name)
	if q, ok := m.queues[id]; ok {
		return snapshot(q), nil
	}
	if capacity <= 0 {
		return nil, ErrCapacity
	}

	q := &Queue{
		ID:        id,
		GuildID:   guildID,
		Name:      strings.TrimSpace(name),
		Players:   []Player{},
		CreatedAt: m.now(),
		Capacity:  capacity,
	}

	m.queues[id] = q
	return snapshot(q), nil
}

// JoinQueue adds the player to the named queue. A player can wait in only one
// queue per guild. When the join fills the queue, the whole roster is removed
// and returned in join order; otherwise roster is nil.
func (m *Manager) JoinQueue(guildID, name string, p Player) (roster []Player, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, exists := m.queues[queueID(guildID, name)]
	if !exists {
		return nil, ErrNotFound
	}

	if qi, _ := locatePlayer(m.guildQueues(guildID), p.ID); qi >= 0 {
		return nil, ErrAlreadyIn
	}

	if p.JoinedAt.IsZero() {
		p.JoinedAt = m.now()
	}
	q.Players = append(q.Players, p)

	if len(q.Players) < q.Capacity {
		return nil, nil
	}
	roster = q.Players
	q.Players = []Player{}
	log.Info().Str("component", "queue").Str("guild", guildID).Str("queue", q.Name).Int("players", len(roster)).Msg("queue filled")
	return roster, nil
}

// LeaveQueue removes the player from whichever queue of the guild holds them
// and returns that queue's name.
func (m *Manager) LeaveQueue(guildID, playerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	qs := m.guildQueues(guildID)
	qi, pi := locatePlayer(qs, playerID)
	if qi < 0 {
		return "", ErrNotIn
	}
	q := qs[qi]
	q.Players = append(q.Players[:pi], q.Players[pi+1:]...)
	return q.Name, nil
}

// get a queue state
func (m *Manager) GetQueue(guildID, name string) (*Queue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, exists := m.queues[queueID(guildID, name)]
	if !exists {
		return nil, ErrNotFound
	}

	return snapshot(q), nil
}

// Queues returns copies of the guild's queues, smallest mode first.
func (m *Manager) Queues(guildID string) []*Queue {
	m.mu.Lock()
	defer m.mu.Unlock()

	qs := m.guildQueues(guildID)
	out := make([]*Queue, len(qs))
	for i, q := range qs {
		out[i] = snapshot(q)
	}
	return out
}

// Waiting reports the queue name the player is waiting in, if any.
func (m *Manager) Waiting(guildID, playerID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	qs := m.guildQueues(guildID)
	if qi, _ := locatePlayer(qs, playerID); qi >= 0 {
		return qs[qi].Name, true
	}
	return "", false
}

// Reset empties every queue of the guild and returns how many players left.
func (m *Manager) Reset(guildID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, q := range m.guildQueues(guildID) {
		n += len(q.Players)
		q.Players = []Player{}
	}
	return n
}

// guildQueues must be called under the mutex.
func (m *Manager) guildQueues(guildID string) []*Queue {
	var qs []*Queue
	for _, q := range m.queues {
		if q.GuildID == guildID {
			qs = append(qs, q)
		}
	}
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].Capacity != qs[j].Capacity {
			return qs[i].Capacity < qs[j].Capacity
		}
		return qs[i].ID < qs[j].ID
	})
	return qs
}
