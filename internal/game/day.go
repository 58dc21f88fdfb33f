package game

import (
	"math/rand/v2"

	"go.uber.org/zap"
)

// LynchOutcome is the public result of a day vote.
type LynchOutcome string

const (
	LynchNoVotes  LynchOutcome = "no_votes"
	LynchExecuted LynchOutcome = "executed"
	LynchWarded   LynchOutcome = "warded"
)

// DayResult is the outcome of one voting window.
type DayResult struct {
	Round int
	// Tally counts votes per target among counted votes.
	Tally map[string]int
	// Passes counts living voters who explicitly abstained.
	Passes int
	// Discarded lists voters whose ballots did not count.
	Discarded []string
	Target    string
	Outcome   LynchOutcome
	WardedBy  string
	Deaths    []DeathEvent
}

// DayEngine resolves the day vote.
type DayEngine struct {
	rng *rand.Rand
	log *zap.SugaredLogger
}

func NewDayEngine(rng *rand.Rand, log *zap.SugaredLogger) *DayEngine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &DayEngine{rng: rng, log: log}
}

// Resolve tallies votes cast by living players for living targets. The
// highest count is lynched, ties broken uniformly at random. A lynch on a
// player warded the night before by a still living warden is voided.
func (e *DayEngine) Resolve(round int, roster *Roster, votes map[string]Vote, warded map[string]string) DayResult {
	result := DayResult{Round: round, Tally: make(map[string]int), Outcome: LynchNoVotes}

	var order []string
	for _, voter := range roster.Players() {
		v, ok := votes[voter.ID]
		if !ok {
			continue
		}
		if !voter.Alive() {
			result.Discarded = append(result.Discarded, voter.ID)
			continue
		}
		if v.TargetID == "" {
			result.Passes++
			continue
		}
		target, ok := roster.Player(v.TargetID)
		if !ok || !target.Alive() {
			result.Discarded = append(result.Discarded, voter.ID)
			continue
		}
		if result.Tally[v.TargetID] == 0 {
			order = append(order, v.TargetID)
		}
		result.Tally[v.TargetID]++
	}

	result.Target = pickMax(e.rng, result.Tally, order)
	if result.Target == "" {
		e.log.Debugf("day %d: no votes cast (%d passes)", round, result.Passes)
		return result
	}

	if wardenID, ok := warded[result.Target]; ok {
		if warden, ok := roster.Player(wardenID); ok && warden.Alive() {
			result.Outcome = LynchWarded
			result.WardedBy = wardenID
			e.log.Infof("day %d: lynch on %s voided by ward from %s", round, result.Target, wardenID)
			return result
		}
	}

	result.Outcome = LynchExecuted
	result.Deaths = roster.finalizeDeaths(map[string]DeathCause{result.Target: CauseLynched}, round)
	for _, d := range result.Deaths {
		e.log.Infof("day %d: %s (%s) died, cause %s", round, d.PlayerID, d.Role, d.Cause)
	}
	return result
}
