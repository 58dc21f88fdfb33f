package game

// EvaluateWinner returns the winning faction once the match is decided.
// Village wins when no Werewolf-faction player is alive and somebody else is.
// The Werewolf faction wins once it is at least as large as everyone else
// alive. If nobody is alive the match is over with FactionNone, a draw.
func EvaluateWinner(roster *Roster) (Faction, bool) {
	wolves, others := 0, 0
	for _, p := range roster.Living() {
		if p.Faction() == FactionWerewolf {
			wolves++
		} else {
			others++
		}
	}
	switch {
	case wolves == 0 && others == 0:
		return FactionNone, true
	case wolves == 0:
		return FactionVillage, true
	case wolves >= others:
		return FactionWerewolf, true
	}
	return FactionNone, false
}
