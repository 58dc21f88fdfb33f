package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"werewolfbot/internal/game"
)

// Preset is a named match setup. Unset fields keep the configured defaults.
type Preset struct {
	Roles             map[string]int `yaml:"roles"`
	MinPlayers        *int           `yaml:"min_players"`
	NightSeconds      *int           `yaml:"night_seconds"`
	DiscussionSeconds *int           `yaml:"discussion_seconds"`
	VotingSeconds     *int           `yaml:"voting_seconds"`
	RevengeSeconds    *int           `yaml:"revenge_seconds"`
	CloseEarly        *bool          `yaml:"close_early"`
	Rewards           *game.Rewards  `yaml:"rewards"`
}

// PresetFile is the YAML presets document:
//
//	default: classic
//	presets:
//	  classic:
//	    roles: {Werewolf: 2, Seer: 1, Doctor: 1}
//	channels:
//	  "123456789": classic
type PresetFile struct {
	Default  string            `yaml:"default"`
	Presets  map[string]Preset `yaml:"presets"`
	Channels map[string]string `yaml:"channels"`
}

// loadPresets reads path. A missing file yields an empty set.
func loadPresets(path string) (*PresetFile, error) {
	pf := &PresetFile{}
	if path == "" {
		return pf, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return pf, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, pf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for ch, name := range pf.Channels {
		if _, ok := pf.Presets[name]; !ok {
			return nil, fmt.Errorf("channel %s uses unknown preset %q", ch, name)
		}
	}
	if _, ok := pf.Presets[pf.Default]; pf.Default != "" && !ok {
		return nil, fmt.Errorf("unknown default preset %q", pf.Default)
	}
	return pf, nil
}

// For returns the preset bound to channelID, falling back to the default preset.
func (pf *PresetFile) For(channelID string) (string, Preset, bool) {
	name, ok := pf.Channels[channelID]
	if !ok {
		name = pf.Default
	}
	p, ok := pf.Presets[name]
	return name, p, ok
}

func (p Preset) apply(cfg *game.Config, catalog *game.RoleCatalog) error {
	if p.Roles != nil {
		counts := make(map[game.RoleName]int, len(p.Roles))
		for name, n := range p.Roles {
			def, ok := catalog.LookupFold(name)
			if !ok {
				return &game.ConfigurationError{Reason: fmt.Sprintf("preset names unknown role %q", name)}
			}
			counts[def.Name] = n
		}
		cfg.RoleCounts = counts
	}
	seconds := func(src *int, dst *time.Duration) {
		if src != nil {
			*dst = time.Duration(*src) * time.Second
		}
	}
	if p.MinPlayers != nil {
		cfg.MinPlayers = *p.MinPlayers
	}
	seconds(p.NightSeconds, &cfg.NightDuration)
	seconds(p.DiscussionSeconds, &cfg.DiscussionDuration)
	seconds(p.VotingSeconds, &cfg.VotingDuration)
	seconds(p.RevengeSeconds, &cfg.RevengeTimeout)
	if p.CloseEarly != nil {
		cfg.CloseEarly = *p.CloseEarly
	}
	if p.Rewards != nil {
		cfg.Rewards = *p.Rewards
	}
	return nil
}

// roleCountSource is the part of the store channel configuration reads.
type roleCountSource interface {
	RoleCounts(ctx context.Context, channelID string) (map[game.RoleName]int, error)
}

// channelConfigs layers a channel's session config:
// configured defaults < YAML preset < role counts stored for the channel.
type channelConfigs struct {
	base    game.Config
	presets *PresetFile
	store   roleCountSource
	catalog *game.RoleCatalog
	log     *zap.SugaredLogger
}

func (c *channelConfigs) SessionConfig(ctx context.Context, channelID string) (game.Config, error) {
	cfg := c.base.Clone()
	if name, p, ok := c.presets.For(channelID); ok {
		if err := p.apply(&cfg, c.catalog); err != nil {
			return cfg, err
		}
		c.log.Debugf("Channel %s uses preset %q", channelID, name)
	}
	counts, err := c.store.RoleCounts(ctx, channelID)
	if err != nil {
		return cfg, fmt.Errorf("role counts for %s: %w", channelID, err)
	}
	if len(counts) > 0 {
		cfg.RoleCounts = counts
	}
	return cfg, nil
}
