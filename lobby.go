package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"werewolfbot/internal/game"
)

// nameResolver turns a chat user id into a display name.
type nameResolver interface {
	DisplayName(ctx context.Context, playerID string) (string, error)
}

// Lobby is the gathering area of every channel. It serves as the game's
// PlayerDirectory.
type Lobby struct {
	store   *Store
	configs game.ConfigurationSource
	names   nameResolver
	log     *zap.SugaredLogger
}

// LobbyStatus holds everything the !roles and !status replies show before a match.
type LobbyStatus struct {
	Members    []string
	RoleCounts map[game.RoleName]int
	TotalRoles int
	MinPlayers int
	CanStart   bool
}

func (l *Lobby) Join(ctx context.Context, channelID, playerID string) (bool, error) {
	added, err := l.store.Join(ctx, channelID, playerID)
	if err != nil {
		l.log.Errorf("Lobby: join %s in %s: %v", playerID, channelID, err)
		return false, err
	}
	if added {
		l.log.Infof("Player %s joined the gathering in %s", playerID, channelID)
	}
	return added, nil
}

func (l *Lobby) Leave(ctx context.Context, channelID, playerID string) (bool, error) {
	removed, err := l.store.Leave(ctx, channelID, playerID)
	if err != nil {
		l.log.Errorf("Lobby: leave %s in %s: %v", playerID, channelID, err)
		return false, err
	}
	if removed {
		l.log.Infof("Player %s left the gathering in %s", playerID, channelID)
	}
	return removed, nil
}

// Clear empties the gathering once its members have been seated.
func (l *Lobby) Clear(ctx context.Context, channelID string) error {
	if err := l.store.ClearGathering(ctx, channelID); err != nil {
		l.log.Errorf("Lobby: clear %s: %v", channelID, err)
		return err
	}
	return nil
}

func (l *Lobby) GatheringMembers(ctx context.Context, channelID string) ([]string, error) {
	return l.store.Members(ctx, channelID)
}

func (l *Lobby) DisplayName(ctx context.Context, playerID string) (string, error) {
	return l.names.DisplayName(ctx, playerID)
}

// Status reports who is gathered and whether a match could start.
func (l *Lobby) Status(ctx context.Context, channelID string) (LobbyStatus, error) {
	members, err := l.store.Members(ctx, channelID)
	if err != nil {
		return LobbyStatus{}, err
	}
	cfg, err := l.configs.SessionConfig(ctx, channelID)
	if err != nil {
		return LobbyStatus{}, fmt.Errorf("session config: %w", err)
	}
	st := LobbyStatus{Members: members, RoleCounts: cfg.RoleCounts, MinPlayers: cfg.MinPlayers}
	for _, n := range cfg.RoleCounts {
		st.TotalRoles += n
	}
	st.CanStart = len(members) >= cfg.MinPlayers
	return st, nil
}
