package game

//go:generate go tool mockgen -source=collaborators.go -destination=mocks/collaborators_mock.go -package=mocks

import (
	"context"
	"time"
)

// MessageKind tells a Notifier what a message is about so transports can
// format it.
type MessageKind string

const (
	MsgMatchStart    MessageKind = "match_start"
	MsgRoleReveal    MessageKind = "role_reveal"
	MsgFactionRoster MessageKind = "faction_roster"
	MsgNightStart    MessageKind = "night_start"
	MsgNightPrompt   MessageKind = "night_prompt"
	MsgActionResult  MessageKind = "action_result"
	MsgDeaths        MessageKind = "deaths"
	MsgDayStart      MessageKind = "day_start"
	MsgVotingStart   MessageKind = "voting_start"
	MsgLynch         MessageKind = "lynch"
	MsgRevenge       MessageKind = "revenge"
	MsgGameOver      MessageKind = "game_over"
	MsgCancelled     MessageKind = "cancelled"
)

// PlayerView is a read-only copy of a player. Role and Faction are only
// meant for the player themselves until the match is over.
type PlayerView struct {
	ID         string
	Name       string
	Role       RoleName
	Faction    Faction
	Alive      bool
	DeathCause DeathCause
}

// Message is a structured notification. Transports render it; Text is always
// a usable fallback.
type Message struct {
	Kind      MessageKind
	SessionID string
	Round     int
	Phase     Phase
	Text      string

	Role    RoleName
	Faction Faction
	Winner  Faction

	Deaths  []DeathEvent
	Targets []PlayerView
	Players []PlayerView
	Report  *ActionReport
	Lynch   *DayResult
}

// Prompt asks a single player to pick one of Options.
type Prompt struct {
	Text    string
	Options []PlayerView
}

// Notifier delivers messages. Every method may fail; the engine degrades
// instead of stopping.
type Notifier interface {
	Broadcast(ctx context.Context, channelID string, msg Message) error
	SendPrivate(ctx context.Context, playerID string, msg Message) error
	// OpenFactionChannel creates a private group for one faction and returns
	// a channel id usable with Broadcast.
	OpenFactionChannel(ctx context.Context, channelID string, faction Faction, playerIDs []string) (string, error)
	// RequestConfirmation blocks until the player picks an option or the
	// timeout passes. It returns the chosen player id, or "" for no choice.
	RequestConfirmation(ctx context.Context, playerID string, prompt Prompt, timeout time.Duration) (string, error)
}

// PlayerDirectory resolves player identities.
type PlayerDirectory interface {
	DisplayName(ctx context.Context, playerID string) (string, error)
	// GatheringMembers lists the players waiting to play in a channel.
	GatheringMembers(ctx context.Context, channelID string) ([]string, error)
}

// RewardSink pays out at game over.
type RewardSink interface {
	Award(ctx context.Context, playerID string, currency, experience int) error
}

// ConfigurationSource supplies a configuration snapshot per session.
type ConfigurationSource interface {
	SessionConfig(ctx context.Context, channelID string) (Config, error)
}

// MatchEvent is one public event of a match.
type MatchEvent struct {
	Round int
	Phase Phase
	Kind  MessageKind
	Text  string
	At    time.Time
}

// MatchRecord summarizes a finished or cancelled match.
type MatchRecord struct {
	SessionID string
	ChannelID string
	StartedAt time.Time
	EndedAt   time.Time
	Rounds    int
	Winner    Faction
	Cancelled bool
	Players   []PlayerView
	Events    []MatchEvent
}

// MatchRecorder stores match history. It is optional.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, rec MatchRecord) error
}

// PhaseTimer bounds every wait of the scheduler. Wait returns nil when d has
// passed or early fires, and ctx.Err() when the session is cancelled first.
type PhaseTimer interface {
	Wait(ctx context.Context, phase Phase, round int, d time.Duration, early <-chan struct{}) error
}

// WallClock is the production PhaseTimer.
type WallClock struct{}

func (WallClock) Wait(ctx context.Context, _ Phase, _ int, d time.Duration, early <-chan struct{}) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-early:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
