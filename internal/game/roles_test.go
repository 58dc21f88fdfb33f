package game

import (
	"errors"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	if c.Filler().Name != RoleVillager {
		t.Errorf("Expected filler Villager, got %s", c.Filler().Name)
	}
	if len(c.Names()) != len(defaultRoles) {
		t.Errorf("Expected %d roles, got %d", len(defaultRoles), len(c.Names()))
	}

	priorities := map[RoleName]int{
		RoleWarden:        PriorityFullBlock,
		RoleDoctor:        PriorityLifeProtect,
		RoleBodyguard:     PriorityLifeProtect,
		RoleWerewolf:      PriorityFactionKill,
		RoleAlphaWerewolf: PriorityFactionKill,
		RoleSeer:          PriorityInvestigate,
		RoleHunter:        PriorityMark,
		RoleWitch:         PriorityPotion,
		RoleVillager:      NoNightAction,
		RoleWanderer:      NoNightAction,
	}
	for name, want := range priorities {
		def, ok := c.Lookup(name)
		if !ok {
			t.Errorf("Role %s missing from catalog", name)
			continue
		}
		if def.NightPriority != want {
			t.Errorf("Role %s: expected priority %d, got %d", name, want, def.NightPriority)
		}
	}

	witch, _ := c.Lookup(RoleWitch)
	if witch.MaxUses[ResourcePoison] != 1 || witch.MaxUses[ResourceAntidote] != 1 {
		t.Errorf("Witch should have one of each potion, got %v", witch.MaxUses)
	}
	if !witch.Allows(ActionPoison) || !witch.Allows(ActionRevive) || witch.Allows(ActionKill) {
		t.Errorf("Witch actions wrong: %v", witch.Actions)
	}
}

func TestLookupFold(t *testing.T) {
	c := DefaultCatalog()
	def, ok := c.LookupFold("  alpha werewolf ")
	if !ok || def.Name != RoleAlphaWerewolf {
		t.Errorf("Expected Alpha Werewolf, got %v %v", def, ok)
	}
	if _, ok := c.LookupFold("mayor"); ok {
		t.Error("Unknown role should not be found")
	}
}

func TestNewRoleCatalogRejects(t *testing.T) {
	villager := RoleDefinition{Name: RoleVillager, Faction: FactionVillage}
	seer := RoleDefinition{Name: RoleSeer, Faction: FactionVillage, NightPriority: PriorityInvestigate, Actions: []ActionKind{ActionInvestigate}}

	cases := []struct {
		name   string
		filler RoleName
		defs   []RoleDefinition
	}{
		{"unnamed role", RoleVillager, []RoleDefinition{villager, {Faction: FactionVillage}}},
		{"duplicate", RoleVillager, []RoleDefinition{villager, villager}},
		{"missing filler", RoleWanderer, []RoleDefinition{villager}},
		{"filler acts at night", RoleSeer, []RoleDefinition{villager, seer}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRoleCatalog(tc.filler, tc.defs...)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("Expected configuration error, got %v", err)
			}
		})
	}
}

func TestCatalogCopiesDefinitions(t *testing.T) {
	uses := map[Resource]int{ResourcePoison: 1}
	defs := []RoleDefinition{
		{Name: RoleVillager, Faction: FactionVillage},
		{Name: RoleWitch, Faction: FactionVillage, NightPriority: PriorityPotion, Actions: []ActionKind{ActionPoison}, MaxUses: uses},
	}
	c, err := NewRoleCatalog(RoleVillager, defs...)
	if err != nil {
		t.Fatalf("NewRoleCatalog: %v", err)
	}
	uses[ResourcePoison] = 5
	defs[1].Actions[0] = ActionKill

	witch, _ := c.Lookup(RoleWitch)
	if witch.MaxUses[ResourcePoison] != 1 {
		t.Errorf("Catalog shares MaxUses with caller: %v", witch.MaxUses)
	}
	if witch.Actions[0] != ActionPoison {
		t.Errorf("Catalog shares Actions with caller: %v", witch.Actions)
	}
}
