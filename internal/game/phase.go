package game

// Phase is the scheduler state of a session.
type Phase string

const (
	PhaseStarting         Phase = "starting"
	PhaseNight            Phase = "night"
	PhaseNightResolution  Phase = "night_resolution"
	PhaseDay              Phase = "day"
	PhaseVoting           Phase = "voting"
	PhaseVotingResolution Phase = "voting_resolution"
	PhaseGameOver         Phase = "game_over"
	PhaseCancelled        Phase = "cancelled"
)

var phaseTransitions = map[Phase][]Phase{
	PhaseStarting:         {PhaseNight},
	PhaseNight:            {PhaseNightResolution},
	PhaseNightResolution:  {PhaseDay},
	PhaseDay:              {PhaseVoting},
	PhaseVoting:           {PhaseVotingResolution},
	PhaseVotingResolution: {PhaseNight},
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseGameOver || p == PhaseCancelled
}

// CanTransitionTo reports whether the scheduler may move from p to next.
// GameOver and Cancelled are reachable from every non-terminal phase.
func (p Phase) CanTransitionTo(next Phase) bool {
	if p.Terminal() {
		return false
	}
	if next.Terminal() {
		return true
	}
	for _, allowed := range phaseTransitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsActions reports whether night actions may be submitted in p.
func (p Phase) AcceptsActions() bool { return p == PhaseNight }

// AcceptsVotes reports whether day votes may be submitted in p.
func (p Phase) AcceptsVotes() bool { return p == PhaseVoting }
