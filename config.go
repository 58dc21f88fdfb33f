package main

import (
	"encoding/json"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"werewolfbot/internal/game"
)

// AppConfig holds all bot configuration.
// Priority (lowest → highest): defaults < env vars (.env included) < JSON config file < CLI flags.
type AppConfig struct {
	// Server
	DB   string `json:"db"`   // database connection string
	Dev  bool   `json:"dev"`  // dev mode: verbose logging
	Addr string `json:"addr"` // HTTP listen address for the spectator feed

	// Discord
	DiscordToken  string `json:"discord_token"`
	CommandPrefix string `json:"command_prefix"`
	SendRate      int    `json:"send_rate"` // outbound messages per second

	// Logging
	LogFile  string `json:"log_file"` // rolling log file, empty for stdout only
	LogDebug bool   `json:"log_debug"`

	// Match defaults, overridden per channel by presets and stored role counts
	PresetsFile       string `json:"presets_file"`
	MinPlayers        int    `json:"min_players"`
	NightSeconds      int    `json:"night_seconds"`
	DiscussionSeconds int    `json:"discussion_seconds"`
	VotingSeconds     int    `json:"voting_seconds"`
	GraceSeconds      int    `json:"grace_seconds"`
	RevengeSeconds    int    `json:"revenge_seconds"`

	// AI Storyteller
	StorytellerProvider    string `json:"storyteller_provider"`    // ollama | openai | claude | gemini | groq | openai-compatible
	StorytellerModel       string `json:"storyteller_model"`       // model name
	StorytellerOllamaURL   string `json:"storyteller_ollama_url"`  // Ollama server URL
	StorytellerURL         string `json:"storyteller_url"`         // base URL for openai-compatible
	StorytellerAPIKey      string `json:"storyteller_api_key"`     // API key for openai-compatible
	StorytellerTemperature string `json:"storyteller_temperature"` // float 0-1 as string
	GroqAPIKey             string `json:"groq_api_key"`            // API key for groq provider
}

func defaultConfig() AppConfig {
	base := game.DefaultConfig()
	return AppConfig{
		DB:                   "werewolfbot.db",
		Addr:                 ":8080",
		CommandPrefix:        "!",
		SendRate:             5,
		PresetsFile:          "presets.yaml",
		MinPlayers:           base.MinPlayers,
		NightSeconds:         int(base.NightDuration / time.Second),
		DiscussionSeconds:    int(base.DiscussionDuration / time.Second),
		VotingSeconds:        int(base.VotingDuration / time.Second),
		GraceSeconds:         int(base.GameOverGrace / time.Second),
		RevengeSeconds:       int(base.RevengeTimeout / time.Second),
		StorytellerOllamaURL: "http://localhost:11434",
	}
}

// matchDefaults turns the configured timings into the base session config
// that presets and per-channel role counts are layered over.
func (cfg AppConfig) matchDefaults() game.Config {
	out := game.DefaultConfig()
	out.MinPlayers = cfg.MinPlayers
	out.NightDuration = time.Duration(cfg.NightSeconds) * time.Second
	out.DiscussionDuration = time.Duration(cfg.DiscussionSeconds) * time.Second
	out.VotingDuration = time.Duration(cfg.VotingSeconds) * time.Second
	out.GameOverGrace = time.Duration(cfg.GraceSeconds) * time.Second
	out.RevengeTimeout = time.Duration(cfg.RevengeSeconds) * time.Second
	return out
}

// loadConfig builds a config by layering: defaults → .env and env vars → JSON config file.
// CLI flag overrides are applied separately by flagValues.applyTo after flag.Parse.
func loadConfig(configPath string) (AppConfig, []string) {
	cfg := defaultConfig()
	var notes []string

	// Layer 1: env vars, with .env filling in anything not already exported
	if err := godotenv.Load(); err == nil {
		notes = append(notes, "loaded .env")
	} else if !os.IsNotExist(err) {
		notes = append(notes, "failed to read .env: "+err.Error())
	}
	envStr := os.Getenv
	envBool := func(key string) (val bool, set bool) {
		v := os.Getenv(key)
		if v == "" {
			return false, false
		}
		return v == "1" || v == "true" || v == "yes", true
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			} else {
				notes = append(notes, "ignoring "+key+": "+err.Error())
			}
		}
	}

	if v := envStr("DB"); v != "" {
		cfg.DB = v
	}
	if v, ok := envBool("DEV"); ok {
		cfg.Dev = v
	}
	if v := envStr("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := envStr("DISCORD_TOKEN"); v != "" {
		cfg.DiscordToken = v
	}
	if v := envStr("COMMAND_PREFIX"); v != "" {
		cfg.CommandPrefix = v
	}
	envInt("SEND_RATE", &cfg.SendRate)
	if v := envStr("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v, ok := envBool("LOG_DEBUG"); ok {
		cfg.LogDebug = v
	}
	if v := envStr("PRESETS_FILE"); v != "" {
		cfg.PresetsFile = v
	}
	envInt("MIN_PLAYERS", &cfg.MinPlayers)
	envInt("NIGHT_SECONDS", &cfg.NightSeconds)
	envInt("DISCUSSION_SECONDS", &cfg.DiscussionSeconds)
	envInt("VOTING_SECONDS", &cfg.VotingSeconds)
	envInt("GRACE_SECONDS", &cfg.GraceSeconds)
	envInt("REVENGE_SECONDS", &cfg.RevengeSeconds)
	if v := envStr("STORYTELLER_PROVIDER"); v != "" {
		cfg.StorytellerProvider = v
	}
	if v := envStr("STORYTELLER_MODEL"); v != "" {
		cfg.StorytellerModel = v
	}
	if v := envStr("STORYTELLER_OLLAMA_URL"); v != "" {
		cfg.StorytellerOllamaURL = v
	}
	if v := envStr("STORYTELLER_URL"); v != "" {
		cfg.StorytellerURL = v
	}
	if v := envStr("STORYTELLER_API_KEY"); v != "" {
		cfg.StorytellerAPIKey = v
	}
	if v := envStr("STORYTELLER_TEMPERATURE"); v != "" {
		cfg.StorytellerTemperature = v
	}
	if v := envStr("GROQ_API_KEY"); v != "" {
		cfg.GroqAPIKey = v
	}

	// Layer 2: JSON config file, only fields present in the file override env vars
	if data, err := os.ReadFile(configPath); err == nil {
		var overlay map[string]json.RawMessage
		if err := json.Unmarshal(data, &overlay); err != nil {
			notes = append(notes, "failed to parse "+configPath+": "+err.Error())
		} else {
			applyJSONOverlay(&cfg, overlay)
			notes = append(notes, "loaded "+configPath)
		}
	} else if !os.IsNotExist(err) {
		notes = append(notes, "failed to read "+configPath+": "+err.Error())
	}

	return cfg, notes
}

// applyJSONOverlay only sets fields that are explicitly present in the JSON map.
func applyJSONOverlay(cfg *AppConfig, m map[string]json.RawMessage) {
	set := func(key string, dst any) {
		if v, ok := m[key]; ok {
			json.Unmarshal(v, dst)
		}
	}
	set("db", &cfg.DB)
	set("dev", &cfg.Dev)
	set("addr", &cfg.Addr)
	set("discord_token", &cfg.DiscordToken)
	set("command_prefix", &cfg.CommandPrefix)
	set("send_rate", &cfg.SendRate)
	set("log_file", &cfg.LogFile)
	set("log_debug", &cfg.LogDebug)
	set("presets_file", &cfg.PresetsFile)
	set("min_players", &cfg.MinPlayers)
	set("night_seconds", &cfg.NightSeconds)
	set("discussion_seconds", &cfg.DiscussionSeconds)
	set("voting_seconds", &cfg.VotingSeconds)
	set("grace_seconds", &cfg.GraceSeconds)
	set("revenge_seconds", &cfg.RevengeSeconds)
	set("storyteller_provider", &cfg.StorytellerProvider)
	set("storyteller_model", &cfg.StorytellerModel)
	set("storyteller_ollama_url", &cfg.StorytellerOllamaURL)
	set("storyteller_url", &cfg.StorytellerURL)
	set("storyteller_api_key", &cfg.StorytellerAPIKey)
	set("storyteller_temperature", &cfg.StorytellerTemperature)
	set("groq_api_key", &cfg.GroqAPIKey)
}

// flagValues holds pointers to all registered CLI flags.
type flagValues struct {
	configPath          *string
	db                  *string
	dev                 *bool
	addr                *string
	discordToken        *string
	commandPrefix       *string
	logFile             *string
	logDebug            *bool
	presetsFile         *string
	minPlayers          *int
	nightSeconds        *int
	votingSeconds       *int
	storytellerProvider *string
	storytellerModel    *string
}

// registerFlags registers all CLI flags on fs and returns pointers to their values.
// Parse fs after this, then applyTo to layer them over the loaded config.
func registerFlags(fs *flag.FlagSet) flagValues {
	return flagValues{
		configPath:          fs.String("config", "config.json", "path to JSON config file"),
		db:                  fs.String("db", "", "SQLite database path"),
		dev:                 fs.Bool("dev", false, "enable development mode (debug logging)"),
		addr:                fs.String("addr", "", "spectator HTTP listen address (e.g. :8080)"),
		discordToken:        fs.String("discord-token", "", "Discord bot token"),
		commandPrefix:       fs.String("prefix", "", "command prefix (default !)"),
		logFile:             fs.String("log-file", "", "rolling log file path"),
		logDebug:            fs.Bool("log-debug", false, "enable debug logging"),
		presetsFile:         fs.String("presets", "", "YAML role presets file"),
		minPlayers:          fs.Int("min-players", 0, "minimum players to start a match"),
		nightSeconds:        fs.Int("night-seconds", 0, "night phase length in seconds"),
		votingSeconds:       fs.Int("voting-seconds", 0, "voting window length in seconds"),
		storytellerProvider: fs.String("storyteller-provider", "", "AI storyteller provider (ollama|openai|claude|gemini|groq|openai-compatible)"),
		storytellerModel:    fs.String("storyteller-model", "", "AI storyteller model name"),
	}
}

// applyTo overlays any CLI flags that were explicitly set onto cfg.
// Flags that were not passed on the command line are ignored (env/JSON values win).
func (fv flagValues) applyTo(fs *flag.FlagSet, cfg *AppConfig) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DB = *fv.db
		case "dev":
			cfg.Dev = *fv.dev
		case "addr":
			cfg.Addr = *fv.addr
		case "discord-token":
			cfg.DiscordToken = *fv.discordToken
		case "prefix":
			cfg.CommandPrefix = *fv.commandPrefix
		case "log-file":
			cfg.LogFile = *fv.logFile
		case "log-debug":
			cfg.LogDebug = *fv.logDebug
		case "presets":
			cfg.PresetsFile = *fv.presetsFile
		case "min-players":
			cfg.MinPlayers = *fv.minPlayers
		case "night-seconds":
			cfg.NightSeconds = *fv.nightSeconds
		case "voting-seconds":
			cfg.VotingSeconds = *fv.votingSeconds
		case "storyteller-provider":
			cfg.StorytellerProvider = *fv.storytellerProvider
		case "storyteller-model":
			cfg.StorytellerModel = *fv.storytellerModel
		}
	})
}
