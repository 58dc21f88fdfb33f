package game

import (
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"
)

// ActionOutcome is what became of a single night action.
type ActionOutcome string

const (
	OutcomeSuccess       ActionOutcome = "success"
	OutcomeBlocked       ActionOutcome = "blocked"
	OutcomeInvalidTarget ActionOutcome = "invalid_target"
	OutcomeNoEffect      ActionOutcome = "no_effect"
)

// ActionReport is the private result of one night action, delivered to its actor.
type ActionReport struct {
	ActorID  string
	Kind     ActionKind
	TargetID string
	Outcome  ActionOutcome
	Detail   string
	// Revealed is set for investigations.
	Revealed Faction
}

// NightResult is the outcome of one night resolution.
type NightResult struct {
	Round      int
	KillTarget string
	KillVoided bool
	Deaths     []DeathEvent
	Reports    []ActionReport
	// Warded maps each warded player to the warden who warded them.
	Warded map[string]string
}

// NightEngine resolves the hidden actions of one night. It mutates the roster
// and is only ever called from the session's scheduler goroutine.
type NightEngine struct {
	rng *rand.Rand
	log *zap.SugaredLogger
}

func NewNightEngine(rng *rand.Rand, log *zap.SugaredLogger) *NightEngine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &NightEngine{rng: rng, log: log}
}

type nightRun struct {
	round   int
	roster  *Roster
	result  *NightResult
	pending map[string]DeathCause
	// poisoned holds every target a poison reached, whatever else is pending for them.
	poisoned map[string]bool

	// shieldAll and shieldKill map a shielded target to the report indices of
	// the players shielding them.
	shieldAll  map[string][]int
	shieldKill map[string][]int
}

type indexedAction struct {
	PendingAction
	actor  *Player
	report int
}

// Resolve runs every valid action in ascending night priority. Within a
// priority group actions run in seat order. Deaths are finalized once, after
// the last group, followed by any revenge they trigger.
func (e *NightEngine) Resolve(round int, roster *Roster, actions map[string]PendingAction) NightResult {
	result := NightResult{Round: round, Warded: make(map[string]string)}
	run := &nightRun{
		round:      round,
		roster:     roster,
		result:     &result,
		pending:    make(map[string]DeathCause),
		poisoned:   make(map[string]bool),
		shieldAll:  make(map[string][]int),
		shieldKill: make(map[string][]int),
	}

	groups := make(map[int][]indexedAction)
	var priorities []int
	acted := make(map[string]string)
	for _, p := range roster.Players() {
		a, ok := actions[p.ID]
		if !ok || a.TargetID == "" {
			continue
		}
		a.ActorID = p.ID
		idx := len(result.Reports)
		result.Reports = append(result.Reports, ActionReport{ActorID: p.ID, Kind: a.Kind, TargetID: a.TargetID})
		if reason := validateNightAction(roster, p, a); reason != "" {
			result.Reports[idx].Outcome = OutcomeInvalidTarget
			result.Reports[idx].Detail = reason
			e.log.Debugf("night %d: %s %s -> %s rejected: %s", round, p.ID, a.Kind, a.TargetID, reason)
			continue
		}
		prio := p.Role.NightPriority
		if _, seen := groups[prio]; !seen {
			priorities = append(priorities, prio)
		}
		groups[prio] = append(groups[prio], indexedAction{PendingAction: a, actor: p, report: idx})
		acted[p.ID] = a.TargetID
	}
	slices.Sort(priorities)

	for _, prio := range priorities {
		var kills []indexedAction
		for _, a := range groups[prio] {
			switch a.Kind {
			case ActionWard:
				run.ward(a)
			case ActionProtect:
				run.protect(a)
			case ActionGuard:
				run.guard(a)
			case ActionKill:
				kills = append(kills, a)
			case ActionInvestigate:
				run.investigate(a)
			case ActionMark:
				run.mark(a)
			case ActionPoison:
				run.poison(a)
			case ActionRevive:
				run.revive(a)
			}
		}
		if len(kills) > 0 {
			e.factionKill(run, kills)
		}
	}

	for _, p := range roster.Players() {
		if p.Role.NoRepeatTarget {
			p.LastTarget = acted[p.ID]
		}
	}

	result.Deaths = roster.finalizeDeaths(run.pending, round)
	for _, d := range result.Deaths {
		e.log.Infof("night %d: %s (%s) died, cause %s", round, d.PlayerID, d.Role, d.Cause)
	}
	return result
}

// validateNightAction repeats the submission checks against the roster as it
// stands at resolution time. It returns an empty string for a valid action.
func validateNightAction(roster *Roster, actor *Player, a PendingAction) string {
	if !actor.Alive() {
		return "dead players cannot act"
	}
	if !actor.Role.Allows(a.Kind) {
		return "your role cannot " + string(a.Kind)
	}
	target, ok := roster.Player(a.TargetID)
	if !ok {
		return "target is not in this match"
	}
	if !target.Alive() {
		return "target is dead"
	}
	if target.ID == actor.ID && !actor.Role.CanTargetSelf {
		return "you cannot target yourself"
	}
	if a.Kind == ActionKill && target.Faction() == FactionWerewolf {
		return "the pack cannot attack its own"
	}
	if actor.Role.NoRepeatTarget && actor.LastTarget != "" && actor.LastTarget == target.ID {
		return "you cannot pick the same player two nights in a row"
	}
	if r, ok := resourceFor(a.Kind); ok && a.Kind != ActionRevive && actor.Remaining(r) <= 0 {
		return "no " + string(r) + " left"
	}
	return ""
}

func (r *nightRun) report(a indexedAction) *ActionReport {
	return &r.result.Reports[a.report]
}

// markShieldUsed upgrades the reports of everyone whose shield blocked harm.
func (r *nightRun) markShieldUsed(indices []int, detail string) {
	for _, i := range indices {
		r.result.Reports[i].Outcome = OutcomeSuccess
		r.result.Reports[i].Detail = detail
	}
}

func (r *nightRun) ward(a indexedAction) {
	r.shieldAll[a.TargetID] = append(r.shieldAll[a.TargetID], a.report)
	if _, taken := r.result.Warded[a.TargetID]; !taken {
		r.result.Warded[a.TargetID] = a.ActorID
	}
	rep := r.report(a)
	rep.Outcome = OutcomeNoEffect
	rep.Detail = "ward held, nobody came"
}

func (r *nightRun) protect(a indexedAction) {
	r.shieldKill[a.TargetID] = append(r.shieldKill[a.TargetID], a.report)
	rep := r.report(a)
	rep.Outcome = OutcomeNoEffect
	rep.Detail = "nobody attacked your patient"
}

// guard shields the target like protect, except that guarding a Werewolf costs
// the guard their life.
func (r *nightRun) guard(a indexedAction) {
	target, _ := r.roster.Player(a.TargetID)
	rep := r.report(a)
	r.shieldKill[a.TargetID] = append(r.shieldKill[a.TargetID], a.report)
	if target.Faction() == FactionWerewolf {
		if shields := r.shieldAll[a.ActorID]; len(shields) > 0 {
			r.markShieldUsed(shields, "your ward saved a guard")
			rep.Outcome = OutcomeBlocked
			rep.Detail = "you guarded a werewolf, but a ward kept you alive"
			return
		}
		r.pending[a.ActorID] = CauseSacrifice
		rep.Outcome = OutcomeSuccess
		rep.Detail = "you guarded a werewolf and paid with your life"
		return
	}
	rep.Outcome = OutcomeNoEffect
	rep.Detail = "nobody attacked your charge"
}

func (r *nightRun) investigate(a indexedAction) {
	target, _ := r.roster.Player(a.TargetID)
	rep := r.report(a)
	rep.Outcome = OutcomeSuccess
	rep.Revealed = target.Faction()
	rep.Detail = "faction revealed"
}

func (r *nightRun) mark(a indexedAction) {
	a.actor.PendingRevengeTarget = a.TargetID
	rep := r.report(a)
	rep.Outcome = OutcomeSuccess
	rep.Detail = "target marked"
}

func (r *nightRun) poison(a indexedAction) {
	a.actor.consume(ResourcePoison)
	rep := r.report(a)
	if shields := r.shieldAll[a.TargetID]; len(shields) > 0 {
		r.markShieldUsed(shields, "your ward stopped a poisoning")
		rep.Outcome = OutcomeBlocked
		rep.Detail = "the poison was warded off"
		return
	}
	r.poisoned[a.TargetID] = true
	if _, dying := r.pending[a.TargetID]; !dying {
		r.pending[a.TargetID] = CausePoison
	}
	rep.Outcome = OutcomeSuccess
	rep.Detail = "poisoned"
}

// revive only undoes a death caused by the faction kill. Anything else leaves
// the antidote unspent. A poisoned target keeps dying of the poison.
func (r *nightRun) revive(a indexedAction) {
	rep := r.report(a)
	if a.actor.Remaining(ResourceAntidote) <= 0 {
		rep.Outcome = OutcomeNoEffect
		rep.Detail = "no antidote left"
		return
	}
	if r.pending[a.TargetID] != CauseWerewolfKill {
		rep.Outcome = OutcomeNoEffect
		rep.Detail = "the target was not attacked by the pack"
		return
	}
	if r.poisoned[a.TargetID] {
		r.pending[a.TargetID] = CausePoison
		rep.Outcome = OutcomeNoEffect
		rep.Detail = "the antidote cannot undo poison"
		return
	}
	delete(r.pending, a.TargetID)
	a.actor.consume(ResourceAntidote)
	rep.Outcome = OutcomeSuccess
	rep.Detail = "revived"
}

// factionKill settles the pack's target. A living leader's vote decides;
// otherwise the plurality wins with ties broken uniformly at random.
func (e *NightEngine) factionKill(r *nightRun, votes []indexedAction) {
	target := ""
	for _, v := range votes {
		if v.actor.Role.Leader {
			target = v.TargetID
			break
		}
	}
	if target == "" {
		tally := make(map[string]int)
		var order []string
		for _, v := range votes {
			if tally[v.TargetID] == 0 {
				order = append(order, v.TargetID)
			}
			tally[v.TargetID]++
		}
		target = pickMax(e.rng, tally, order)
	}
	r.result.KillTarget = target

	for _, v := range votes {
		rep := r.report(v)
		rep.Outcome = OutcomeSuccess
		rep.Detail = "the pack attacked " + target
	}

	if shields := slices.Concat(r.shieldAll[target], r.shieldKill[target]); len(shields) > 0 {
		r.result.KillVoided = true
		r.markShieldUsed(shields, "you saved "+target+" from the pack")
		for _, v := range votes {
			rep := r.report(v)
			rep.Outcome = OutcomeBlocked
			rep.Detail = "the victim was protected"
		}
		e.log.Debugf("night %d: kill on %s voided by protection", r.round, target)
		return
	}
	if _, dying := r.pending[target]; !dying {
		r.pending[target] = CauseWerewolfKill
	}
	e.log.Debugf("night %d: pack kills %s", r.round, target)
}

// pickMax returns the key with the highest count, choosing uniformly among ties.
// order fixes iteration so results depend only on the random source.
func pickMax(rng *rand.Rand, tally map[string]int, order []string) string {
	best := 0
	var tied []string
	for _, k := range order {
		switch n := tally[k]; {
		case n > best:
			best = n
			tied = append(tied[:0], k)
		case n == best && n > 0:
			tied = append(tied, k)
		}
	}
	switch len(tied) {
	case 0:
		return ""
	case 1:
		return tied[0]
	}
	return tied[rng.IntN(len(tied))]
}
