package game

import (
	"fmt"
	"math/rand/v2"
)

// RoleAssigner deals roles from a catalog.
type RoleAssigner struct {
	catalog *RoleCatalog
	rng     *rand.Rand
}

func NewRoleAssigner(catalog *RoleCatalog, rng *rand.Rand) *RoleAssigner {
	return &RoleAssigner{catalog: catalog, rng: rng}
}

// Assign gives every player exactly one role. A pool larger than the table is
// cut down by random sampling, keeping at least one Werewolf-faction role; a
// smaller pool is padded with the filler role.
func (a *RoleAssigner) Assign(playerIDs []string, counts map[RoleName]int) (map[string]*RoleDefinition, error) {
	if len(playerIDs) == 0 {
		return nil, &ConfigurationError{Reason: "no players to assign roles to"}
	}
	seen := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if _, dup := seen[id]; dup {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("player %s is seated twice", id)}
		}
		seen[id] = struct{}{}
	}

	pool, err := a.pool(counts)
	if err != nil {
		return nil, err
	}
	a.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	switch {
	case len(pool) > len(playerIDs):
		pool = a.truncate(pool, len(playerIDs))
	case len(pool) < len(playerIDs):
		for len(pool) < len(playerIDs) {
			pool = append(pool, a.catalog.Filler())
		}
		a.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}

	seats := append([]string(nil), playerIDs...)
	a.rng.Shuffle(len(seats), func(i, j int) { seats[i], seats[j] = seats[j], seats[i] })

	out := make(map[string]*RoleDefinition, len(seats))
	for i, id := range seats {
		out[id] = pool[i]
	}
	return out, nil
}

func (a *RoleAssigner) pool(counts map[RoleName]int) ([]*RoleDefinition, error) {
	var pool []*RoleDefinition
	wolves := 0
	for name, n := range counts {
		if n < 0 {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("role %s has negative count %d", name, n)}
		}
		if _, ok := a.catalog.Lookup(name); !ok {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown role %q", name)}
		}
	}
	for _, name := range a.catalog.Names() {
		def, _ := a.catalog.Lookup(name)
		for range counts[name] {
			pool = append(pool, def)
			if def.Faction == FactionWerewolf {
				wolves++
			}
		}
	}
	if wolves == 0 {
		return nil, &ConfigurationError{Reason: "at least one Werewolf-faction role is required"}
	}
	return pool, nil
}

// truncate keeps n roles of an already shuffled pool.
func (a *RoleAssigner) truncate(pool []*RoleDefinition, n int) []*RoleDefinition {
	kept, dropped := pool[:n], pool[n:]
	for _, d := range kept {
		if d.Faction == FactionWerewolf {
			return kept
		}
	}
	for _, d := range dropped {
		if d.Faction == FactionWerewolf {
			kept[a.rng.IntN(n)] = d
			break
		}
	}
	return kept
}
