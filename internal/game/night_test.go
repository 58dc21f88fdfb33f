package game

import (
	"testing"
	"testing/quick"
)

// standard table: p1 Werewolf, p2 Seer, p3 Doctor, p4 Villager, p5 Villager
func standardTable(t *testing.T) *Roster {
	return seat(t, RoleWerewolf, RoleSeer, RoleDoctor, RoleVillager, RoleVillager)
}

// ============================================================================
// Kill and Protection
// ============================================================================

func TestNightKillWithoutProtection(t *testing.T) {
	r := standardTable(t)
	e := NewNightEngine(testRand(1), testLogger(t))

	res := e.Resolve(1, r, actions(
		act("p1", ActionKill, "p2"),
		act("p3", ActionProtect, "p5"),
		act("p2", ActionInvestigate, "p1"),
	))

	if len(res.Deaths) != 1 || res.Deaths[0].PlayerID != "p2" || res.Deaths[0].Cause != CauseWerewolfKill {
		t.Fatalf("Expected p2 killed by werewolves, got %+v", res.Deaths)
	}
	if alive(t, r, "p2") {
		t.Error("p2 should be dead")
	}
	if rep := reportFor(t, res, "p2"); rep.Revealed != FactionWerewolf || rep.Outcome != OutcomeSuccess {
		t.Errorf("Seer should learn p1 is a werewolf, got %+v", rep)
	}
	if rep := reportFor(t, res, "p3"); rep.Outcome != OutcomeNoEffect {
		t.Errorf("Doctor on the wrong target should have no effect, got %+v", rep)
	}
	if err := r.CheckPartition(); err != nil {
		t.Error(err)
	}
}

func TestProtectionDominatesKill(t *testing.T) {
	f := func(target uint8, protector bool) bool {
		// Protect one of p2..p5 with either the doctor or the warden.
		victim := []string{"p2", "p4", "p5"}[target%3]
		roles := []RoleName{RoleWerewolf, RoleSeer, RoleDoctor, RoleVillager, RoleVillager}
		kind := ActionProtect
		if protector {
			roles[2] = RoleWarden
			kind = ActionWard
		}
		r := seat(t, roles...)
		res := NewNightEngine(testRand(uint64(target)), testLogger(t)).Resolve(1, r, actions(
			act("p1", ActionKill, victim),
			act("p3", kind, victim),
		))

		if len(res.Deaths) != 0 {
			t.Errorf("Shielded %s died: %+v", victim, res.Deaths)
			return false
		}
		if !res.KillVoided || res.KillTarget != victim {
			t.Errorf("Expected voided kill on %s, got %+v", victim, res)
			return false
		}
		if rep := reportFor(t, res, "p3"); rep.Outcome != OutcomeSuccess {
			t.Errorf("Protector should be told they saved someone, got %+v", rep)
			return false
		}
		if rep := reportFor(t, res, "p1"); rep.Outcome != OutcomeBlocked {
			t.Errorf("Werewolf should be told the kill was blocked, got %+v", rep)
			return false
		}
		return alive(t, r, victim)
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 20}); err != nil {
		t.Error(err)
	}
}

func TestDoctorCanProtectSelfButNotRepeat(t *testing.T) {
	r := standardTable(t)
	e := NewNightEngine(testRand(1), testLogger(t))

	res := e.Resolve(1, r, actions(act("p1", ActionKill, "p3"), act("p3", ActionProtect, "p3")))
	if len(res.Deaths) != 0 {
		t.Fatalf("Self-protecting doctor died: %+v", res.Deaths)
	}

	res = e.Resolve(2, r, actions(act("p1", ActionKill, "p3"), act("p3", ActionProtect, "p3")))
	if rep := reportFor(t, res, "p3"); rep.Outcome != OutcomeInvalidTarget {
		t.Errorf("Repeat protection should be rejected, got %+v", rep)
	}
	if len(res.Deaths) != 1 || res.Deaths[0].PlayerID != "p3" {
		t.Errorf("Expected p3 to die on the second night, got %+v", res.Deaths)
	}
}

func TestDoctorRepeatAllowedAfterSkippedNight(t *testing.T) {
	r := standardTable(t)
	e := NewNightEngine(testRand(1), testLogger(t))

	e.Resolve(1, r, actions(act("p3", ActionProtect, "p4")))
	e.Resolve(2, r, nil)
	res := e.Resolve(3, r, actions(act("p3", ActionProtect, "p4")))
	if rep := reportFor(t, res, "p3"); rep.Outcome == OutcomeInvalidTarget {
		t.Errorf("Protection after a skipped night should be allowed, got %+v", rep)
	}
}

func TestBodyguardSacrifice(t *testing.T) {
	// p1 Werewolf, p2 Bodyguard, p3..p5 Villager
	r := seat(t, RoleWerewolf, RoleBodyguard, RoleVillager, RoleVillager, RoleVillager)
	res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(
		act("p1", ActionKill, "p3"),
		act("p2", ActionGuard, "p1"),
	))

	causes := map[string]DeathCause{}
	for _, d := range res.Deaths {
		causes[d.PlayerID] = d.Cause
	}
	if causes["p2"] != CauseSacrifice {
		t.Errorf("Bodyguard who guarded a werewolf should die as a sacrifice, got %v", causes)
	}
	if causes["p3"] != CauseWerewolfKill {
		t.Errorf("The pack's victim should still die, got %v", causes)
	}
	if !alive(t, r, "p1") {
		t.Error("Guarded werewolf should survive")
	}
}

func TestBodyguardShieldsVillager(t *testing.T) {
	r := seat(t, RoleWerewolf, RoleBodyguard, RoleVillager, RoleVillager, RoleVillager)
	res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(
		act("p1", ActionKill, "p3"),
		act("p2", ActionGuard, "p3"),
	))
	if len(res.Deaths) != 0 {
		t.Errorf("Guarded villager died: %+v", res.Deaths)
	}
}

// ============================================================================
// Faction Kill Decision
// ============================================================================

func TestLeaderDecidesKill(t *testing.T) {
	// p1 Alpha, p2 Werewolf, p3 Werewolf, p4..p7 Villager
	r := seat(t, RoleAlphaWerewolf, RoleWerewolf, RoleWerewolf, RoleVillager, RoleVillager, RoleVillager, RoleVillager)
	res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(
		act("p1", ActionKill, "p4"),
		act("p2", ActionKill, "p5"),
		act("p3", ActionKill, "p5"),
	))
	if res.KillTarget != "p4" {
		t.Errorf("Leader's choice p4 should win over plurality, got %s", res.KillTarget)
	}
}

func TestPluralityWithoutLeader(t *testing.T) {
	r := seat(t, RoleWerewolf, RoleWerewolf, RoleWerewolf, RoleVillager, RoleVillager, RoleVillager, RoleVillager)
	res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(
		act("p1", ActionKill, "p4"),
		act("p2", ActionKill, "p5"),
		act("p3", ActionKill, "p5"),
	))
	if res.KillTarget != "p5" {
		t.Errorf("Plurality target p5 expected, got %s", res.KillTarget)
	}
}

func TestKillTieBreakStaysAmongTied(t *testing.T) {
	picked := map[string]int{}
	for seed := range uint64(200) {
		r := seat(t, RoleWerewolf, RoleWerewolf, RoleVillager, RoleVillager, RoleVillager)
		res := NewNightEngine(testRand(seed), testLogger(t)).Resolve(1, r, actions(
			act("p1", ActionKill, "p3"),
			act("p2", ActionKill, "p4"),
		))
		picked[res.KillTarget]++
	}
	if picked["p3"] == 0 || picked["p4"] == 0 || len(picked) != 2 {
		t.Errorf("Tie should be broken between p3 and p4 only, got %v", picked)
	}
}

func TestPackCannotAttackItsOwn(t *testing.T) {
	r := seat(t, RoleWerewolf, RoleWerewolf, RoleVillager, RoleVillager, RoleVillager)
	res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(act("p1", ActionKill, "p2")))
	if rep := reportFor(t, res, "p1"); rep.Outcome != OutcomeInvalidTarget {
		t.Errorf("Expected invalid target, got %+v", rep)
	}
	if len(res.Deaths) != 0 {
		t.Errorf("Nobody should die, got %+v", res.Deaths)
	}
}

// ============================================================================
// Potions
// ============================================================================

// witch table: p1 Werewolf, p2 Witch, p3..p5 Villager
func witchTable(t *testing.T) *Roster {
	return seat(t, RoleWerewolf, RoleWitch, RoleVillager, RoleVillager, RoleVillager)
}

func TestReviveUndoesPackKill(t *testing.T) {
	r := witchTable(t)
	res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(
		act("p1", ActionKill, "p3"),
		act("p2", ActionRevive, "p3"),
	))
	if len(res.Deaths) != 0 {
		t.Errorf("Revived player died: %+v", res.Deaths)
	}
	witch, _ := r.Player("p2")
	if witch.Remaining(ResourceAntidote) != 0 {
		t.Errorf("Antidote should be spent exactly once, %d left", witch.Remaining(ResourceAntidote))
	}
}

func TestReviveIsNoOpOtherwise(t *testing.T) {
	r := witchTable(t)
	e := NewNightEngine(testRand(1), testLogger(t))

	res := e.Resolve(1, r, actions(
		act("p1", ActionKill, "p3"),
		act("p2", ActionRevive, "p4"),
	))
	if rep := reportFor(t, res, "p2"); rep.Outcome != OutcomeNoEffect {
		t.Errorf("Revive on an unattacked player should do nothing, got %+v", rep)
	}
	witch, _ := r.Player("p2")
	if witch.Remaining(ResourceAntidote) != 1 {
		t.Errorf("Antidote should be preserved, %d left", witch.Remaining(ResourceAntidote))
	}
	if alive(t, r, "p3") {
		t.Error("Pack victim should still die")
	}
}

func TestReviveDoesNotCurePoison(t *testing.T) {
	// p1 Werewolf, p2 Witch, p3 Witch, p4..p6 Villager
	r := seat(t, RoleWerewolf, RoleWitch, RoleWitch, RoleVillager, RoleVillager, RoleVillager)
	res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(
		act("p2", ActionPoison, "p4"),
		act("p3", ActionRevive, "p4"),
	))
	if alive(t, r, "p4") {
		t.Error("Poisoned player must not be revived")
	}
	if rep := reportFor(t, res, "p3"); rep.Outcome != OutcomeNoEffect {
		t.Errorf("Expected no effect, got %+v", rep)
	}
	second, _ := r.Player("p3")
	if second.Remaining(ResourceAntidote) != 1 {
		t.Error("Antidote should be preserved")
	}
}

func TestReviveOfKilledAndPoisonedTarget(t *testing.T) {
	for _, tt := range []struct {
		name     string
		poisoner string
		reviver  string
	}{
		{"poison seated first", "p2", "p3"},
		{"revive seated first", "p3", "p2"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r := seat(t, RoleWerewolf, RoleWitch, RoleWitch, RoleVillager, RoleVillager, RoleVillager)
			res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(
				act("p1", ActionKill, "p4"),
				act(tt.poisoner, ActionPoison, "p4"),
				act(tt.reviver, ActionRevive, "p4"),
			))
			if alive(t, r, "p4") {
				t.Fatal("Poison must kill even when the pack's kill is undone")
			}
			if len(res.Deaths) != 1 || res.Deaths[0].PlayerID != "p4" || res.Deaths[0].Cause != CausePoison {
				t.Errorf("Expected p4 to die of poison, got %+v", res.Deaths)
			}
		})
	}
}

func TestSecondReviveOnSameTargetIsNoOp(t *testing.T) {
	r := seat(t, RoleWerewolf, RoleWitch, RoleWitch, RoleVillager, RoleVillager, RoleVillager)
	res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(
		act("p1", ActionKill, "p4"),
		act("p2", ActionRevive, "p4"),
		act("p3", ActionRevive, "p4"),
	))
	if !alive(t, r, "p4") {
		t.Error("p4 should be revived")
	}
	first, _ := r.Player("p2")
	second, _ := r.Player("p3")
	if first.Remaining(ResourceAntidote)+second.Remaining(ResourceAntidote) != 1 {
		t.Errorf("Exactly one antidote should be spent")
	}
	if rep := reportFor(t, res, "p3"); rep.Outcome != OutcomeNoEffect {
		t.Errorf("Second revive should have no effect, got %+v", rep)
	}
}

func TestPoisonSingleUse(t *testing.T) {
	r := witchTable(t)
	e := NewNightEngine(testRand(1), testLogger(t))

	res := e.Resolve(1, r, actions(act("p2", ActionPoison, "p3")))
	if len(res.Deaths) != 1 || res.Deaths[0].Cause != CausePoison {
		t.Fatalf("Expected p3 poisoned, got %+v", res.Deaths)
	}
	res = e.Resolve(2, r, actions(act("p2", ActionPoison, "p4")))
	if rep := reportFor(t, res, "p2"); rep.Outcome != OutcomeInvalidTarget {
		t.Errorf("Second poison should be rejected, got %+v", rep)
	}
	if !alive(t, r, "p4") {
		t.Error("p4 should survive")
	}
}

func TestWardBlocksPoison(t *testing.T) {
	// p1 Werewolf, p2 Witch, p3 Warden, p4..p5 Villager
	r := seat(t, RoleWerewolf, RoleWitch, RoleWarden, RoleVillager, RoleVillager)
	res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(
		act("p2", ActionPoison, "p4"),
		act("p3", ActionWard, "p4"),
	))
	if !alive(t, r, "p4") {
		t.Error("Warded player was poisoned")
	}
	if rep := reportFor(t, res, "p2"); rep.Outcome != OutcomeBlocked {
		t.Errorf("Expected blocked poison, got %+v", rep)
	}
	if res.Warded["p4"] != "p3" {
		t.Errorf("Expected p4 warded by p3, got %v", res.Warded)
	}
}

// ============================================================================
// Revenge and Validation
// ============================================================================

func TestHunterMarkFiresOnNightDeath(t *testing.T) {
	// p1 Werewolf, p2 Hunter, p3..p5 Villager
	r := seat(t, RoleWerewolf, RoleHunter, RoleVillager, RoleVillager, RoleVillager)
	res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(
		act("p1", ActionKill, "p2"),
		act("p2", ActionMark, "p1"),
	))
	if len(res.Deaths) != 2 {
		t.Fatalf("Expected hunter and mark to die, got %+v", res.Deaths)
	}
	if res.Deaths[1].PlayerID != "p1" || res.Deaths[1].Cause != CauseRevenge {
		t.Errorf("Expected p1 to die in revenge, got %+v", res.Deaths[1])
	}
	if err := r.CheckPartition(); err != nil {
		t.Error(err)
	}
}

func TestInvalidActionsAreReported(t *testing.T) {
	r := standardTable(t)
	p5, _ := r.Player("p5")
	p5.die(CauseLynched, 0)
	r.recompute()

	res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(
		act("p2", ActionInvestigate, "p2"),
		act("p1", ActionKill, "p5"),
		act("p4", ActionKill, "p3"),
		act("p3", ActionProtect, "nobody"),
	))
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		if rep := reportFor(t, res, id); rep.Outcome != OutcomeInvalidTarget {
			t.Errorf("%s: expected invalid target, got %+v", id, rep)
		}
	}
	if len(res.Deaths) != 0 {
		t.Errorf("No action was valid, but deaths happened: %+v", res.Deaths)
	}
}

func TestPassIsIgnored(t *testing.T) {
	r := standardTable(t)
	res := NewNightEngine(testRand(1), testLogger(t)).Resolve(1, r, actions(act("p3", ActionProtect, "")))
	if len(res.Reports) != 0 {
		t.Errorf("A pass should produce no report, got %+v", res.Reports)
	}
}
