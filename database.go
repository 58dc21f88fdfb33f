package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"werewolfbot/internal/game"
)

// Store is the SQLite-backed ledger, role configuration and match history.
// It serves as the game's RewardSink and MatchRecorder.
type Store struct {
	db  *sqlx.DB
	log *zap.SugaredLogger
}

// Role definitions as stored for the !roles listing
type Role struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Team        string `db:"team"`
	Description string `db:"description"`
}

type ChannelRoleConfig struct {
	ChannelID string `db:"channel_id"`
	RoleName  string `db:"role_name"`
	Count     int    `db:"count"`
}

type Wallet struct {
	PlayerID    string `db:"player_id"`
	Currency    int    `db:"currency"`
	Experience  int    `db:"experience"`
	GamesPlayed int    `db:"games_played"`
}

// Level derives a player level from experience, 100 XP per level.
func (w Wallet) Level() int { return w.Experience/100 + 1 }

type MatchRow struct {
	SessionID string    `db:"session_id"`
	ChannelID string    `db:"channel_id"`
	StartedAt time.Time `db:"started_at"`
	EndedAt   time.Time `db:"ended_at"`
	Rounds    int       `db:"rounds"`
	Winner    string    `db:"winner"`
	Cancelled bool      `db:"cancelled"`
}

type matchPlayerRow struct {
	SessionID  string `db:"session_id"`
	PlayerID   string `db:"player_id"`
	Name       string `db:"name"`
	Role       string `db:"role"`
	Faction    string `db:"faction"`
	Alive      bool   `db:"alive"`
	DeathCause string `db:"death_cause"`
}

type matchEventRow struct {
	SessionID string    `db:"session_id"`
	Round     int       `db:"round"`
	Phase     string    `db:"phase"`
	Kind      string    `db:"kind"`
	Text      string    `db:"text"`
	At        time.Time `db:"at"`
}

const schema = `
	PRAGMA journal_mode=WAL;

	CREATE TABLE IF NOT EXISTS role (
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		team TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS channel_role_config (
		channel_id TEXT NOT NULL,
		role_name TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (role_name) REFERENCES role(name),
		UNIQUE(channel_id, role_name)
	);
	CREATE TABLE IF NOT EXISTS gathering (
		channel_id TEXT NOT NULL,
		player_id TEXT NOT NULL,
		joined_at DATETIME NOT NULL,
		UNIQUE(channel_id, player_id)
	);
	CREATE TABLE IF NOT EXISTS wallet (
		player_id TEXT PRIMARY KEY,
		currency INTEGER NOT NULL DEFAULT 0,
		experience INTEGER NOT NULL DEFAULT 0,
		games_played INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS match (
		session_id TEXT PRIMARY KEY,
		channel_id TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME NOT NULL,
		rounds INTEGER NOT NULL,
		winner TEXT NOT NULL DEFAULT '',
		cancelled INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS match_player (
		session_id TEXT NOT NULL,
		player_id TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		faction TEXT NOT NULL,
		alive INTEGER NOT NULL,
		death_cause TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (session_id) REFERENCES match(session_id),
		UNIQUE(session_id, player_id)
	);
	CREATE TABLE IF NOT EXISTS match_event (
		session_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		phase TEXT NOT NULL,
		kind TEXT NOT NULL,
		text TEXT NOT NULL,
		at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES match(session_id)
	);
	CREATE INDEX IF NOT EXISTS idx_match_channel ON match(channel_id, ended_at);
`

// openStore opens the database, creates the schema and seeds the role table
// from catalog.
func openStore(dsn string, catalog *game.RoleCatalog, log *zap.SugaredLogger) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	// sqlite allows one writer; a single connection also keeps in-memory databases alive
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log}
	if err := s.initDB(catalog); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initDB(catalog *game.RoleCatalog) error {
	if _, err := s.db.Exec(schema); err != nil {
		s.log.Errorf("initDB error: %v", err)
		return fmt.Errorf("create schema: %w", err)
	}
	for _, name := range catalog.Names() {
		def, _ := catalog.Lookup(name)
		if _, err := s.db.Exec(`INSERT OR IGNORE INTO role (name, description, team) VALUES (?, ?, ?)`,
			string(def.Name), def.Description, string(def.Faction)); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	s.log.Infof("Database initialized successfully")
	return nil
}

func (s *Store) Roles(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := s.db.SelectContext(ctx, &roles, `
		SELECT rowid as id,
			name,
			description,
			team
		FROM role
		ORDER BY rowid`)
	return roles, err
}

// RoleCounts returns the stored role counts of a channel. An empty map means
// the channel never configured any.
func (s *Store) RoleCounts(ctx context.Context, channelID string) (map[game.RoleName]int, error) {
	var rows []ChannelRoleConfig
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT channel_id, role_name, count
		FROM channel_role_config
		WHERE channel_id = ?`, channelID); err != nil {
		return nil, err
	}
	counts := make(map[game.RoleName]int, len(rows))
	for _, r := range rows {
		counts[game.RoleName(r.RoleName)] = r.Count
	}
	return counts, nil
}

// AdjustRoleCount adds delta to a channel's count for role, never going below zero.
func (s *Store) AdjustRoleCount(ctx context.Context, channelID string, role game.RoleName, delta int) (int, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channel_role_config (channel_id, role_name, count)
		VALUES (?, ?, MAX(0, ?))
		ON CONFLICT(channel_id, role_name)
		DO UPDATE SET count = MAX(0, count + ?)`,
		channelID, string(role), delta, delta)
	if err != nil {
		return 0, err
	}
	var count int
	err = s.db.GetContext(ctx, &count, `SELECT count FROM channel_role_config WHERE channel_id = ? AND role_name = ?`, channelID, string(role))
	return count, err
}

// ResetRoleCounts forgets a channel's role configuration.
func (s *Store) ResetRoleCounts(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM channel_role_config WHERE channel_id = ?`, channelID)
	return err
}

// Award credits a player once per finished match.
func (s *Store) Award(ctx context.Context, playerID string, currency, experience int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallet (player_id, currency, experience, games_played)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(player_id)
		DO UPDATE SET currency = currency + ?, experience = experience + ?, games_played = games_played + 1`,
		playerID, currency, experience, currency, experience)
	if err != nil {
		return fmt.Errorf("award %s: %w", playerID, err)
	}
	s.log.Debugf("Awarded %s: %d currency, %d xp", playerID, currency, experience)
	return nil
}

// Wallet returns a player's balance; unknown players have an empty wallet.
func (s *Store) Wallet(ctx context.Context, playerID string) (Wallet, error) {
	w := Wallet{PlayerID: playerID}
	var rows []Wallet
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT player_id, currency, experience, games_played
		FROM wallet WHERE player_id = ?`, playerID); err != nil {
		return w, err
	}
	if len(rows) > 0 {
		w = rows[0]
	}
	return w, nil
}

// RecordMatch stores a finished or cancelled match with its roster and events.
func (s *Store) RecordMatch(ctx context.Context, rec game.MatchRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	match := MatchRow{
		SessionID: rec.SessionID,
		ChannelID: rec.ChannelID,
		StartedAt: rec.StartedAt,
		EndedAt:   rec.EndedAt,
		Rounds:    rec.Rounds,
		Winner:    string(rec.Winner),
		Cancelled: rec.Cancelled,
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO match (session_id, channel_id, started_at, ended_at, rounds, winner, cancelled)
		VALUES (:session_id, :channel_id, :started_at, :ended_at, :rounds, :winner, :cancelled)`, match); err != nil {
		return fmt.Errorf("insert match %s: %w", rec.SessionID, err)
	}

	if len(rec.Players) > 0 {
		players := make([]matchPlayerRow, 0, len(rec.Players))
		for _, p := range rec.Players {
			players = append(players, matchPlayerRow{
				SessionID:  rec.SessionID,
				PlayerID:   p.ID,
				Name:       p.Name,
				Role:       string(p.Role),
				Faction:    string(p.Faction),
				Alive:      p.Alive,
				DeathCause: string(p.DeathCause),
			})
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO match_player (session_id, player_id, name, role, faction, alive, death_cause)
			VALUES (:session_id, :player_id, :name, :role, :faction, :alive, :death_cause)`, players); err != nil {
			return fmt.Errorf("insert match players: %w", err)
		}
	}

	if len(rec.Events) > 0 {
		events := make([]matchEventRow, 0, len(rec.Events))
		for _, e := range rec.Events {
			events = append(events, matchEventRow{
				SessionID: rec.SessionID,
				Round:     e.Round,
				Phase:     string(e.Phase),
				Kind:      string(e.Kind),
				Text:      e.Text,
				At:        e.At,
			})
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO match_event (session_id, round, phase, kind, text, at)
			VALUES (:session_id, :round, :phase, :kind, :text, :at)`, events); err != nil {
			return fmt.Errorf("insert match events: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Infof("Recorded match %s in %s (winner %q, cancelled %v)", rec.SessionID, rec.ChannelID, rec.Winner, rec.Cancelled)
	return nil
}

// RecentMatches lists a channel's latest matches, newest first.
func (s *Store) RecentMatches(ctx context.Context, channelID string, limit int) ([]MatchRow, error) {
	var rows []MatchRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT session_id, channel_id, started_at, ended_at, rounds, winner, cancelled
		FROM match
		WHERE channel_id = ?
		ORDER BY ended_at DESC
		LIMIT ?`, channelID, limit)
	return rows, err
}

// matchEvents returns the stored events of one match in order.
func (s *Store) matchEvents(ctx context.Context, sessionID string) ([]matchEventRow, error) {
	var rows []matchEventRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT session_id, round, phase, kind, text, at
		FROM match_event
		WHERE session_id = ?
		ORDER BY rowid`, sessionID)
	return rows, err
}

// Gathering area: players waiting for the next match in a channel.

func (s *Store) Join(ctx context.Context, channelID, playerID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO gathering (channel_id, player_id, joined_at) VALUES (?, ?, ?)`,
		channelID, playerID, time.Now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) Leave(ctx context.Context, channelID, playerID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM gathering WHERE channel_id = ? AND player_id = ?`, channelID, playerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Members lists a channel's gathering area in join order.
func (s *Store) Members(ctx context.Context, channelID string) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `SELECT player_id FROM gathering WHERE channel_id = ? ORDER BY joined_at, rowid`, channelID)
	return ids, err
}

func (s *Store) ClearGathering(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM gathering WHERE channel_id = ?`, channelID)
	return err
}
