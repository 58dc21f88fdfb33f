package game

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// seat builds a roster with ids p1..pN holding the given roles in order.
func seat(t *testing.T, roles ...RoleName) *Roster {
	t.Helper()
	catalog := DefaultCatalog()
	players := make([]*Player, 0, len(roles))
	for i, name := range roles {
		def, ok := catalog.Lookup(name)
		if !ok {
			t.Fatalf("unknown role %q", name)
		}
		players = append(players, newPlayer(fmt.Sprintf("p%d", i+1), fmt.Sprintf("Player %d", i+1), def))
	}
	return NewRoster(players)
}

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed*31+7))
}

func testLogger(t *testing.T) *zap.SugaredLogger {
	return zaptest.NewLogger(t).Sugar()
}

func act(actor string, kind ActionKind, target string) PendingAction {
	return PendingAction{ActorID: actor, Kind: kind, TargetID: target}
}

func actions(list ...PendingAction) map[string]PendingAction {
	out := make(map[string]PendingAction, len(list))
	for _, a := range list {
		out[a.ActorID] = a
	}
	return out
}

func reportFor(t *testing.T, res NightResult, actorID string) ActionReport {
	t.Helper()
	for _, r := range res.Reports {
		if r.ActorID == actorID {
			return r
		}
	}
	t.Fatalf("no report for %s in %+v", actorID, res.Reports)
	return ActionReport{}
}

func alive(t *testing.T, r *Roster, id string) bool {
	t.Helper()
	p, ok := r.Player(id)
	if !ok {
		t.Fatalf("no player %s", id)
	}
	return p.Alive()
}
