package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dependencies are the collaborators shared by every session of a registry.
type Dependencies struct {
	Notifier  Notifier
	Directory PlayerDirectory
	Rewards   RewardSink
	Config    ConfigurationSource

	// Optional.
	Recorder MatchRecorder
	Timer    PhaseTimer
	Catalog  *RoleCatalog
	Logger   *zap.SugaredLogger
	// Rand seeds each session's private random source.
	Rand *rand.Rand
}

// Registry owns the running sessions, at most one per channel.
type Registry struct {
	deps Dependencies

	base   context.Context
	stop   context.CancelFunc
	mu     sync.Mutex
	rngMu  sync.Mutex
	byChan map[string]*Session
}

func NewRegistry(deps Dependencies) (*Registry, error) {
	switch {
	case deps.Notifier == nil:
		return nil, &ConfigurationError{Reason: "registry needs a notifier"}
	case deps.Directory == nil:
		return nil, &ConfigurationError{Reason: "registry needs a player directory"}
	case deps.Rewards == nil:
		return nil, &ConfigurationError{Reason: "registry needs a reward sink"}
	case deps.Config == nil:
		return nil, &ConfigurationError{Reason: "registry needs a configuration source"}
	}
	if deps.Timer == nil {
		deps.Timer = WallClock{}
	}
	if deps.Catalog == nil {
		deps.Catalog = DefaultCatalog()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	base, stop := context.WithCancel(context.Background())
	return &Registry{deps: deps, base: base, stop: stop, byChan: make(map[string]*Session)}, nil
}

// Catalog returns the role catalog sessions are dealt from.
func (r *Registry) Catalog() *RoleCatalog { return r.deps.Catalog }

// Start creates and runs a session for channelID. Players are seeded from
// playerIDs, or from the channel's gathering area when none are given.
// Configuration problems are returned before any session state exists.
// A player can be seated in only one running session at a time.
func (r *Registry) Start(ctx context.Context, channelID string, playerIDs []string) (*Session, error) {
	if _, ok := r.Lookup(channelID); ok {
		return nil, ErrSessionExists
	}

	cfg, err := r.deps.Config.SessionConfig(ctx, channelID)
	if err != nil {
		r.deps.Logger.Warnf("channel %s: configuration source failed, using defaults: %v", channelID, err)
		cfg = DefaultConfig()
	}
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(playerIDs) == 0 {
		playerIDs, err = r.deps.Directory.GatheringMembers(ctx, channelID)
		if err != nil {
			return nil, fmt.Errorf("%w: gathering members of %s: %w", ErrCollaborator, channelID, err)
		}
	}
	ids := dedupe(playerIDs)
	if len(ids) < cfg.MinPlayers {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("need at least %d players, have %d", cfg.MinPlayers, len(ids))}
	}
	r.mu.Lock()
	err = r.checkSeatedLocked(ids)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	rng := r.sessionRand()
	roles, err := NewRoleAssigner(r.deps.Catalog, rng).Assign(ids, cfg.RoleCounts)
	if err != nil {
		return nil, err
	}

	players := make([]*Player, 0, len(ids))
	for _, id := range ids {
		name, err := r.deps.Directory.DisplayName(ctx, id)
		if err != nil || name == "" {
			r.deps.Logger.Warnf("channel %s: no display name for %s: %v", channelID, id, err)
			name = id
		}
		players = append(players, newPlayer(id, name, roles[id]))
	}

	s := newSession(r.base, uuid.NewString(), channelID, cfg, r.deps, NewRoster(players), rng, r.remove)

	r.mu.Lock()
	if _, taken := r.byChan[channelID]; taken {
		r.mu.Unlock()
		s.cancel()
		return nil, ErrSessionExists
	}
	if err := r.checkSeatedLocked(ids); err != nil {
		r.mu.Unlock()
		s.cancel()
		return nil, err
	}
	r.byChan[channelID] = s
	r.mu.Unlock()

	r.deps.Logger.Infof("channel %s: session %s created", channelID, s.ID)
	go s.run()
	return s, nil
}

// Lookup returns the session running in channelID.
func (r *Registry) Lookup(channelID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byChan[channelID]
	return s, ok
}

// FindByPlayer returns the session playerID is seated in, for submissions
// that arrive through private messages.
func (r *Registry) FindByPlayer(playerID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byChan {
		if s.HasPlayer(playerID) {
			return s, true
		}
	}
	return nil, false
}

// checkSeatedLocked rejects ids already seated in a running session.
func (r *Registry) checkSeatedLocked(ids []string) error {
	for _, s := range r.byChan {
		for _, id := range ids {
			if s.HasPlayer(id) {
				return &ConfigurationError{Reason: fmt.Sprintf("player %s is already in the match in channel %s", id, s.ChannelID)}
			}
		}
	}
	return nil
}

// Abort cancels the session in channelID. When it returns the channel is free
// and no rewards will be paid.
func (r *Registry) Abort(channelID string) error {
	r.mu.Lock()
	s, ok := r.byChan[channelID]
	if ok {
		delete(r.byChan, channelID)
	}
	r.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	if s.abort() {
		r.deps.Logger.Infof("channel %s: session %s aborted", channelID, s.ID)
	}
	return nil
}

// Len returns the number of running sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byChan)
}

// Close aborts every session and waits for their goroutines to exit.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.byChan))
	for ch, s := range r.byChan {
		sessions = append(sessions, s)
		delete(r.byChan, ch)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.abort()
	}
	r.stop()
	for _, s := range sessions {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// remove drops s if it still owns its channel.
func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byChan[s.ChannelID] == s {
		delete(r.byChan, s.ChannelID)
	}
}

func (r *Registry) sessionRand() *rand.Rand {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return rand.New(rand.NewPCG(r.deps.Rand.Uint64(), r.deps.Rand.Uint64()))
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
