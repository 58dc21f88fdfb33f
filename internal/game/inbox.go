package game

import "sync"

// PendingAction is a hidden night action. For the Witch, Kind is the potion choice.
type PendingAction struct {
	ActorID  string
	TargetID string
	Kind     ActionKind
}

// Vote is a day vote. An empty TargetID is a pass.
type Vote struct {
	VoterID  string
	TargetID string
}

// Inbox keeps the latest submission per actor for the current window.
// Writers never wait on the reader: Submit holds the lock only for a map write.
type Inbox[V any] struct {
	mu      sync.Mutex
	open    bool
	round   int
	entries map[string]V
}

type (
	ActionInbox = Inbox[PendingAction]
	VoteBox     = Inbox[Vote]
)

func NewInbox[V any]() *Inbox[V] {
	return &Inbox[V]{entries: make(map[string]V)}
}

// Open clears the inbox and starts accepting submissions for round.
func (b *Inbox[V]) Open(round int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string]V)
	b.round = round
	b.open = true
}

// Close stops accepting submissions and hands the collected entries to the caller.
func (b *Inbox[V]) Close() map[string]V {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.entries
	b.entries = make(map[string]V)
	b.open = false
	return out
}

// Submit stores v for actorID, replacing any earlier submission. It returns the
// number of distinct actors that have submitted in this window.
func (b *Inbox[V]) Submit(actorID string, v V) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return len(b.entries), ErrWindowClosed
	}
	b.entries[actorID] = v
	return len(b.entries), nil
}

// Get returns actorID's current submission.
func (b *Inbox[V]) Get(actorID string) (V, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.entries[actorID]
	return v, ok
}

func (b *Inbox[V]) Accepting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *Inbox[V]) Round() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.round
}

func (b *Inbox[V]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
