package game

import (
	"fmt"
	"maps"
	"time"
)

// Rewards is the payout table applied once per player at game over.
type Rewards struct {
	WinCurrency    int `json:"win_currency" yaml:"win_currency"`
	WinExperience  int `json:"win_experience" yaml:"win_experience"`
	LossCurrency   int `json:"loss_currency" yaml:"loss_currency"`
	LossExperience int `json:"loss_experience" yaml:"loss_experience"`
	SurvivorBonus  int `json:"survivor_bonus" yaml:"survivor_bonus"`
}

// Config is the per-session configuration snapshot.
type Config struct {
	RoleCounts map[RoleName]int
	MinPlayers int

	NightDuration      time.Duration
	DiscussionDuration time.Duration
	VotingDuration     time.Duration
	GameOverGrace      time.Duration
	RevengeTimeout     time.Duration

	// CloseEarly ends a window as soon as every eligible player has submitted.
	CloseEarly bool

	Rewards Rewards
}

// DefaultConfig is used when no configuration source is available.
func DefaultConfig() Config {
	return Config{
		RoleCounts: map[RoleName]int{
			RoleWerewolf: 1,
			RoleSeer:     1,
			RoleDoctor:   1,
		},
		MinPlayers:         5,
		NightDuration:      60 * time.Second,
		DiscussionDuration: 90 * time.Second,
		VotingDuration:     45 * time.Second,
		GameOverGrace:      30 * time.Second,
		RevengeTimeout:     20 * time.Second,
		CloseEarly:         true,
		Rewards: Rewards{
			WinCurrency:    100,
			WinExperience:  50,
			LossCurrency:   20,
			LossExperience: 15,
			SurvivorBonus:  25,
		},
	}
}

// Clone returns a deep copy so a session's snapshot cannot change under it.
func (c Config) Clone() Config {
	c.RoleCounts = maps.Clone(c.RoleCounts)
	return c
}

// Validate checks the parts of the configuration that do not depend on the
// seated players.
func (c Config) Validate() error {
	if c.MinPlayers < 1 {
		return &ConfigurationError{Reason: fmt.Sprintf("minimum players must be positive, got %d", c.MinPlayers)}
	}
	for name, n := range c.RoleCounts {
		if n < 0 {
			return &ConfigurationError{Reason: fmt.Sprintf("role %s has negative count %d", name, n)}
		}
	}
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"night", c.NightDuration},
		{"discussion", c.DiscussionDuration},
		{"voting", c.VotingDuration},
		{"revenge", c.RevengeTimeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return &ConfigurationError{Reason: fmt.Sprintf("%s duration must be positive, got %s", d.name, d.d)}
		}
	}
	if c.GameOverGrace < 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("game over grace must not be negative, got %s", c.GameOverGrace)}
	}
	return nil
}
