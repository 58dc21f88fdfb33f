package main

import (
	"context"
	"testing"
	"testing/quick"
	"time"

	"go.uber.org/zap/zaptest"

	"werewolfbot/internal/game"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := openStore(memoryDSN(), game.DefaultCatalog(), zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInitDBSeedsRolesOnce(t *testing.T) {
	s := newTestStore(t)
	catalog := game.DefaultCatalog()
	if err := s.initDB(catalog); err != nil {
		t.Fatalf("second initDB: %v", err)
	}
	roles, err := s.Roles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	names := catalog.Names()
	if len(roles) != len(names) {
		t.Fatalf("Expected %d roles, got %d", len(names), len(roles))
	}
	for i, r := range roles {
		if r.Name != string(names[i]) {
			t.Errorf("Role %d: expected %s, got %s", i, names[i], r.Name)
		}
	}
}

func TestAwardAccumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := func(a, b uint8) bool {
		before, err := s.Wallet(ctx, "p1")
		if err != nil {
			t.Error(err)
			return false
		}
		if err := s.Award(ctx, "p1", int(a), int(b)); err != nil {
			t.Error(err)
			return false
		}
		after, err := s.Wallet(ctx, "p1")
		if err != nil {
			t.Error(err)
			return false
		}
		return after.Currency == before.Currency+int(a) &&
			after.Experience == before.Experience+int(b) &&
			after.GamesPlayed == before.GamesPlayed+1
	}
	if err := quick.Check(f, &quick.Config{MaxCount: 20}); err != nil {
		t.Error(err)
	}
}

func TestWalletUnknownPlayerIsEmpty(t *testing.T) {
	s := newTestStore(t)
	w, err := s.Wallet(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if w.PlayerID != "nobody" || w.Currency != 0 || w.GamesPlayed != 0 || w.Level() != 1 {
		t.Errorf("Unexpected wallet %+v", w)
	}
}

func TestAdjustRoleCountNeverNegative(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.AdjustRoleCount(ctx, "c1", game.RoleWerewolf, -1)
	if err != nil || n != 0 {
		t.Fatalf("Expected 0, got %d (%v)", n, err)
	}
	for range 3 {
		n, err = s.AdjustRoleCount(ctx, "c1", game.RoleWerewolf, 1)
	}
	if err != nil || n != 3 {
		t.Fatalf("Expected 3, got %d (%v)", n, err)
	}
	if n, _ = s.AdjustRoleCount(ctx, "c1", game.RoleWerewolf, -5); n != 0 {
		t.Errorf("Expected the count to stop at 0, got %d", n)
	}
	s.AdjustRoleCount(ctx, "c1", game.RoleSeer, 1)
	s.AdjustRoleCount(ctx, "c2", game.RoleWitch, 2)

	counts, err := s.RoleCounts(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 || counts[game.RoleSeer] != 1 || counts[game.RoleWerewolf] != 0 {
		t.Errorf("Unexpected counts for c1: %v", counts)
	}

	if err := s.ResetRoleCounts(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if counts, _ = s.RoleCounts(ctx, "c1"); len(counts) != 0 {
		t.Errorf("Expected no counts after reset, got %v", counts)
	}
	if counts, _ = s.RoleCounts(ctx, "c2"); counts[game.RoleWitch] != 2 {
		t.Errorf("Reset leaked into c2: %v", counts)
	}
}

func TestGatheringMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if added, err := s.Join(ctx, "c1", id); err != nil || !added {
			t.Fatalf("Join %s: %v %v", id, added, err)
		}
	}
	if added, _ := s.Join(ctx, "c1", "a"); added {
		t.Error("Joining twice should be a no-op")
	}
	if removed, _ := s.Leave(ctx, "c1", "b"); !removed {
		t.Error("Leave should remove b")
	}
	if removed, _ := s.Leave(ctx, "c1", "b"); removed {
		t.Error("Leaving twice should be a no-op")
	}

	members, err := s.Members(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 || members[0] != "a" || members[1] != "c" {
		t.Errorf("Expected [a c], got %v", members)
	}
	if other, _ := s.Members(ctx, "c2"); len(other) != 0 {
		t.Errorf("Expected an empty gathering in c2, got %v", other)
	}

	s.ClearGathering(ctx, "c1")
	if members, _ = s.Members(ctx, "c1"); len(members) != 0 {
		t.Errorf("Expected an empty gathering after clear, got %v", members)
	}
}

func TestRecordMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 1, 2, 20, 0, 0, 0, time.UTC)

	rec := game.MatchRecord{
		SessionID: "s1",
		ChannelID: "c1",
		StartedAt: start,
		EndedAt:   start.Add(10 * time.Minute),
		Rounds:    2,
		Winner:    game.FactionVillage,
		Players: []game.PlayerView{
			{ID: "p1", Name: "Ann", Role: game.RoleWerewolf, Faction: game.FactionWerewolf, DeathCause: game.CauseLynched},
			{ID: "p2", Name: "Bo", Role: game.RoleSeer, Faction: game.FactionVillage, Alive: true},
		},
		Events: []game.MatchEvent{
			{Round: 1, Phase: game.PhaseNight, Kind: game.MsgNightStart, Text: "Night falls.", At: start},
			{Round: 1, Phase: game.PhaseVotingResolution, Kind: game.MsgLynch, Text: "Ann was lynched.", At: start.Add(time.Minute)},
		},
	}
	if err := s.RecordMatch(ctx, rec); err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}
	cancelled := rec
	cancelled.SessionID = "s2"
	cancelled.EndedAt = start.Add(20 * time.Minute)
	cancelled.Winner = game.FactionNone
	cancelled.Cancelled = true
	cancelled.Players, cancelled.Events = nil, nil
	if err := s.RecordMatch(ctx, cancelled); err != nil {
		t.Fatalf("RecordMatch cancelled: %v", err)
	}

	if err := s.RecordMatch(ctx, rec); err == nil {
		t.Error("Recording the same session twice should fail")
	}

	rows, err := s.RecentMatches(ctx, "c1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(rows))
	}
	if rows[0].SessionID != "s2" || !rows[0].Cancelled {
		t.Errorf("Newest match should be the cancelled one, got %+v", rows[0])
	}
	if rows[1].Winner != string(game.FactionVillage) || rows[1].Rounds != 2 {
		t.Errorf("Unexpected finished match %+v", rows[1])
	}

	events, err := s.matchEvents(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[1].Kind != string(game.MsgLynch) {
		t.Errorf("Unexpected events %+v", events)
	}
}
