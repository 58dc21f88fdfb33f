package game

import (
	"fmt"
	"sort"
)

// Status is a player's life status.
type Status string

const (
	StatusAlive Status = "alive"
	StatusDead  Status = "dead"
)

// DeathCause records what killed a player.
type DeathCause string

const (
	CauseNone         DeathCause = ""
	CauseWerewolfKill DeathCause = "werewolf_kill"
	CausePoison       DeathCause = "poison"
	CauseLynched      DeathCause = "lynched"
	CauseRevenge      DeathCause = "revenge"
	CauseSacrifice    DeathCause = "sacrifice"
)

// Player is a seated participant. Players are owned by the session and only
// mutated by the resolution engines.
type Player struct {
	ID         string
	Name       string
	Role       *RoleDefinition
	Status     Status
	DeathCause DeathCause
	DiedRound  int

	// PendingRevengeTarget is set by a revenge role's mark.
	PendingRevengeTarget string
	// LastTarget is the target of this player's previous night action.
	LastTarget string

	used         map[Resource]int
	revengeFired bool
}

func newPlayer(id, name string, role *RoleDefinition) *Player {
	return &Player{ID: id, Name: name, Role: role, Status: StatusAlive, used: make(map[Resource]int)}
}

func (p *Player) Alive() bool { return p.Status == StatusAlive }

func (p *Player) Faction() Faction { return p.Role.Faction }

// Remaining returns how many charges of r the player has left.
func (p *Player) Remaining(r Resource) int {
	return p.Role.MaxUses[r] - p.used[r]
}

// canActAtNight reports whether the player's role acts at night and has at
// least one action whose charges are not used up.
func (p *Player) canActAtNight() bool {
	if !p.Role.HasNightAction() {
		return false
	}
	for _, kind := range p.Role.Actions {
		if r, ok := resourceFor(kind); !ok || p.Remaining(r) > 0 {
			return true
		}
	}
	return false
}

func (p *Player) consume(r Resource) {
	p.used[r]++
}

func (p *Player) die(cause DeathCause, round int) {
	p.Status = StatusDead
	p.DeathCause = cause
	p.DiedRound = round
}

// DeathEvent is a finalized death, in announcement order.
type DeathEvent struct {
	PlayerID string
	Role     RoleName
	Cause    DeathCause
	Round    int
}

// Roster holds every player of a session in seat order together with the
// derived living and dead id sets.
type Roster struct {
	players map[string]*Player
	seats   []string
	living  map[string]struct{}
	dead    map[string]struct{}
}

// NewRoster seats players in the given order.
func NewRoster(players []*Player) *Roster {
	r := &Roster{players: make(map[string]*Player, len(players))}
	for _, p := range players {
		r.players[p.ID] = p
		r.seats = append(r.seats, p.ID)
	}
	r.recompute()
	return r
}

// Player looks up a player by id.
func (r *Roster) Player(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Players returns all players in seat order.
func (r *Roster) Players() []*Player {
	out := make([]*Player, 0, len(r.seats))
	for _, id := range r.seats {
		out = append(out, r.players[id])
	}
	return out
}

// Living returns the living players in seat order.
func (r *Roster) Living() []*Player {
	var out []*Player
	for _, id := range r.seats {
		if p := r.players[id]; p.Alive() {
			out = append(out, p)
		}
	}
	return out
}

func (r *Roster) Len() int { return len(r.seats) }

// LivingIDs returns the derived living set, sorted.
func (r *Roster) LivingIDs() []string { return sortedKeys(r.living) }

// DeadIDs returns the derived dead set, sorted.
func (r *Roster) DeadIDs() []string { return sortedKeys(r.dead) }

// recompute derives the living and dead sets from player status.
func (r *Roster) recompute() {
	r.living = make(map[string]struct{}, len(r.seats))
	r.dead = make(map[string]struct{})
	for _, id := range r.seats {
		if r.players[id].Alive() {
			r.living[id] = struct{}{}
		} else {
			r.dead[id] = struct{}{}
		}
	}
}

// CheckPartition verifies that living and dead partition the player ids and
// agree with every player's status.
func (r *Roster) CheckPartition() error {
	if len(r.living)+len(r.dead) != len(r.players) {
		return fmt.Errorf("living (%d) + dead (%d) != players (%d)", len(r.living), len(r.dead), len(r.players))
	}
	for id, p := range r.players {
		_, alive := r.living[id]
		_, dead := r.dead[id]
		switch {
		case alive && dead:
			return fmt.Errorf("player %s is both living and dead", id)
		case !alive && !dead:
			return fmt.Errorf("player %s is neither living nor dead", id)
		case alive != p.Alive():
			return fmt.Errorf("player %s status %s disagrees with living set", id, p.Status)
		}
	}
	return nil
}

// finalizeDeaths kills every pending player in seat order, then fires revenge
// for the newly dead. It returns all deaths in announcement order.
func (r *Roster) finalizeDeaths(pending map[string]DeathCause, round int) []DeathEvent {
	var events []DeathEvent
	for _, id := range r.seats {
		cause, ok := pending[id]
		if !ok {
			continue
		}
		p := r.players[id]
		if !p.Alive() {
			continue
		}
		p.die(cause, round)
		events = append(events, DeathEvent{PlayerID: id, Role: p.Role.Name, Cause: cause, Round: round})
	}
	events = append(events, r.fireRevenge(events, round)...)
	r.recompute()
	return events
}

// fireRevenge scans only the given newly dead players. A revenge holder whose
// marked target is still alive takes the target down; the chain continues
// through any revenge holder killed that way. Each holder fires at most once.
func (r *Roster) fireRevenge(newlyDead []DeathEvent, round int) []DeathEvent {
	var out []DeathEvent
	queue := make([]string, 0, len(newlyDead))
	for _, ev := range newlyDead {
		queue = append(queue, ev.PlayerID)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		p := r.players[id]
		if p.Alive() || !p.Role.Revenge || p.revengeFired || p.PendingRevengeTarget == "" {
			continue
		}
		p.revengeFired = true
		target, ok := r.players[p.PendingRevengeTarget]
		if !ok || !target.Alive() {
			continue
		}
		target.die(CauseRevenge, round)
		out = append(out, DeathEvent{PlayerID: target.ID, Role: target.Role.Name, Cause: CauseRevenge, Round: round})
		queue = append(queue, target.ID)
	}
	return out
}

// settleRevenge runs the revenge check over every dead player. Holders that
// already fired are skipped, so this is safe to call at game-over evaluation.
func (r *Roster) settleRevenge(round int) []DeathEvent {
	var dead []DeathEvent
	for _, p := range r.Players() {
		if !p.Alive() {
			dead = append(dead, DeathEvent{PlayerID: p.ID})
		}
	}
	out := r.fireRevenge(dead, round)
	r.recompute()
	return out
}

// awaitingRevenge lists dead revenge holders that never marked anyone.
func (r *Roster) awaitingRevenge() []*Player {
	var out []*Player
	for _, p := range r.Players() {
		if !p.Alive() && p.Role.Revenge && !p.revengeFired && p.PendingRevengeTarget == "" {
			out = append(out, p)
		}
	}
	return out
}

// applyRevenge fires a late revenge shot chosen after the holder's death.
// An empty or invalid target spends the ability without effect.
func (r *Roster) applyRevenge(holderID, targetID string, round int) []DeathEvent {
	p, ok := r.players[holderID]
	if !ok || p.revengeFired {
		return nil
	}
	p.PendingRevengeTarget = targetID
	if targetID == "" {
		p.revengeFired = true
		return nil
	}
	out := r.fireRevenge([]DeathEvent{{PlayerID: holderID}}, round)
	p.revengeFired = true
	r.recompute()
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
