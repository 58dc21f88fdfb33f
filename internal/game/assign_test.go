package game

import (
	"errors"
	"fmt"
	"testing"
	"testing/quick"
)

func playerIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i+1)
	}
	return ids
}

func tallyRoles(roles map[string]*RoleDefinition) map[RoleName]int {
	out := make(map[RoleName]int)
	for _, d := range roles {
		out[d.Name]++
	}
	return out
}

// ============================================================================
// Role Assignment Properties
// ============================================================================

func TestAssignExactWhenPoolFits(t *testing.T) {
	f := func(extra, wolves, seers, doctors uint8, seed uint64) bool {
		counts := map[RoleName]int{
			RoleWerewolf: int(wolves%3) + 1,
			RoleSeer:     int(seers % 2),
			RoleDoctor:   int(doctors % 2),
		}
		total := counts[RoleWerewolf] + counts[RoleSeer] + counts[RoleDoctor]
		n := total + int(extra%6)
		ids := playerIDs(n)

		roles, err := NewRoleAssigner(DefaultCatalog(), testRand(seed)).Assign(ids, counts)
		if err != nil {
			t.Errorf("Assign(%d, %v): %v", n, counts, err)
			return false
		}
		if len(roles) != n {
			t.Errorf("Expected %d assignments, got %d", n, len(roles))
			return false
		}
		for _, id := range ids {
			if roles[id] == nil {
				t.Errorf("Player %s has no role", id)
				return false
			}
		}
		got := tallyRoles(roles)
		for name, want := range counts {
			if got[name] != want {
				t.Errorf("Role %s: expected %d, got %d", name, want, got[name])
				return false
			}
		}
		if got[RoleVillager] != n-total {
			t.Errorf("Expected %d filler villagers, got %d", n-total, got[RoleVillager])
			return false
		}
		return true
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 200}); err != nil {
		t.Error(err)
	}
}

func TestAssignTruncatesOverfullPool(t *testing.T) {
	f := func(seed uint64) bool {
		counts := map[RoleName]int{
			RoleWerewolf: 1,
			RoleSeer:     1,
			RoleDoctor:   1,
			RoleHunter:   1,
			RoleWitch:    1,
			RoleWarden:   1,
		}
		roles, err := NewRoleAssigner(DefaultCatalog(), testRand(seed)).Assign(playerIDs(3), counts)
		if err != nil {
			t.Errorf("Assign: %v", err)
			return false
		}
		if len(roles) != 3 {
			t.Errorf("Expected 3 assignments, got %d", len(roles))
			return false
		}
		got := tallyRoles(roles)
		if got[RoleWerewolf] != 1 {
			t.Errorf("Truncation must keep the werewolf, got %v", got)
			return false
		}
		for name, n := range got {
			if n > counts[name] {
				t.Errorf("Role %s dealt %d times, configured %d", name, n, counts[name])
				return false
			}
		}
		return true
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 200}); err != nil {
		t.Error(err)
	}
}

func TestAssignIsShuffled(t *testing.T) {
	counts := map[RoleName]int{RoleWerewolf: 1}
	seen := make(map[string]bool)
	for seed := range uint64(200) {
		roles, err := NewRoleAssigner(DefaultCatalog(), testRand(seed)).Assign(playerIDs(5), counts)
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		for id, d := range roles {
			if d.Name == RoleWerewolf {
				seen[id] = true
			}
		}
	}
	if len(seen) != 5 {
		t.Errorf("Expected every seat to draw the werewolf at least once, got %v", seen)
	}
}

func TestAssignRejects(t *testing.T) {
	cases := []struct {
		name   string
		ids    []string
		counts map[RoleName]int
	}{
		{"negative count", playerIDs(5), map[RoleName]int{RoleWerewolf: 1, RoleSeer: -1}},
		{"unknown role", playerIDs(5), map[RoleName]int{RoleWerewolf: 1, "Mayor": 1}},
		{"no werewolf", playerIDs(5), map[RoleName]int{RoleSeer: 1}},
		{"no players", nil, map[RoleName]int{RoleWerewolf: 1}},
		{"duplicate player", []string{"p1", "p1", "p2"}, map[RoleName]int{RoleWerewolf: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRoleAssigner(DefaultCatalog(), testRand(1)).Assign(tc.ids, tc.counts)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("Expected configuration error, got %v", err)
			}
		})
	}
}
