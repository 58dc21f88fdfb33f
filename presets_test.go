package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"werewolfbot/internal/game"
)

const presetsYAML = `
default: classic
presets:
  classic:
    roles: {werewolf: 2, Seer: 1, Doctor: 1}
  chaos:
    roles: {Werewolf: 1, Witch: 1, Hunter: 1, Warden: 1}
    min_players: 4
    night_seconds: 30
    close_early: false
    rewards:
      win_currency: 500
      win_experience: 10
channels:
  "chaos-room": chaos
`

func writePresets(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPresetsMissingFileIsEmpty(t *testing.T) {
	pf, err := loadPresets(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := pf.For("any"); ok {
		t.Error("Empty preset file should not match any channel")
	}
}

func TestLoadPresetsRejectsUnknownNames(t *testing.T) {
	bad := []string{
		"default: nope\npresets: {}\n",
		"presets:\n  a: {}\nchannels:\n  c1: b\n",
		"presets: [1, 2",
	}
	for i, body := range bad {
		if _, err := loadPresets(writePresets(t, body)); err == nil {
			t.Errorf("case %d: expected an error", i)
		}
	}
}

func TestChannelConfigLayering(t *testing.T) {
	pf, err := loadPresets(writePresets(t, presetsYAML))
	if err != nil {
		t.Fatal(err)
	}
	store := newTestStore(t)
	base := game.DefaultConfig()
	base.NightDuration = 10 * time.Second
	configs := &channelConfigs{base: base, presets: pf, store: store, catalog: game.DefaultCatalog(), log: zaptest.NewLogger(t).Sugar()}
	ctx := context.Background()

	// default preset, role names matched case-insensitively
	cfg, err := configs.SessionConfig(ctx, "lobby")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RoleCounts[game.RoleWerewolf] != 2 || cfg.RoleCounts[game.RoleSeer] != 1 || cfg.NightDuration != 10*time.Second {
		t.Errorf("Unexpected default preset config %+v", cfg)
	}

	cfg, err = configs.SessionConfig(ctx, "chaos-room")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MinPlayers != 4 || cfg.NightDuration != 30*time.Second || cfg.CloseEarly || cfg.Rewards.WinCurrency != 500 {
		t.Errorf("Chaos preset not applied: %+v", cfg)
	}
	if cfg.VotingDuration != base.VotingDuration {
		t.Errorf("Unset preset fields should keep the base, got voting %s", cfg.VotingDuration)
	}

	// stored counts win over the preset
	store.AdjustRoleCount(ctx, "chaos-room", game.RoleBodyguard, 1)
	cfg, _ = configs.SessionConfig(ctx, "chaos-room")
	if len(cfg.RoleCounts) != 1 || cfg.RoleCounts[game.RoleBodyguard] != 1 {
		t.Errorf("Stored counts should replace preset counts, got %v", cfg.RoleCounts)
	}

	// the base is never mutated
	if base.RoleCounts[game.RoleBodyguard] != 0 || base.MinPlayers != game.DefaultConfig().MinPlayers {
		t.Error("SessionConfig changed the base config")
	}
}

func TestPresetUnknownRoleIsConfigurationError(t *testing.T) {
	pf, err := loadPresets(writePresets(t, "default: x\npresets:\n  x:\n    roles: {Vampire: 1}\n"))
	if err != nil {
		t.Fatal(err)
	}
	configs := &channelConfigs{base: game.DefaultConfig(), presets: pf, store: newTestStore(t), catalog: game.DefaultCatalog(), log: zaptest.NewLogger(t).Sugar()}
	if _, err := configs.SessionConfig(context.Background(), "c1"); !errors.Is(err, game.ErrConfiguration) {
		t.Errorf("Expected a configuration error, got %v", err)
	}
}
