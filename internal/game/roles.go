package game

import (
	"fmt"
	"strings"
)

// Faction is the team a role plays for. Win conditions are defined per faction.
type Faction string

const (
	FactionNone     Faction = ""
	FactionVillage  Faction = "village"
	FactionWerewolf Faction = "werewolf"
	FactionNeutral  Faction = "neutral"
)

// RoleName identifies a role in the catalog.
type RoleName string

const (
	RoleVillager      RoleName = "Villager"
	RoleWerewolf      RoleName = "Werewolf"
	RoleAlphaWerewolf RoleName = "Alpha Werewolf"
	RoleWarden        RoleName = "Warden"
	RoleDoctor        RoleName = "Doctor"
	RoleBodyguard     RoleName = "Bodyguard"
	RoleSeer          RoleName = "Seer"
	RoleHunter        RoleName = "Hunter"
	RoleWitch         RoleName = "Witch"
	RoleWanderer      RoleName = "Wanderer"
)

// ActionKind is the kind of hidden action a role may submit at night.
type ActionKind string

const (
	ActionWard        ActionKind = "ward"
	ActionProtect     ActionKind = "protect"
	ActionGuard       ActionKind = "guard"
	ActionKill        ActionKind = "kill"
	ActionInvestigate ActionKind = "investigate"
	ActionMark        ActionKind = "mark"
	ActionPoison      ActionKind = "poison"
	ActionRevive      ActionKind = "revive"
)

// Night priorities. Lower resolves first.
const (
	NoNightAction       = -1
	PriorityFullBlock   = 0
	PriorityLifeProtect = 1
	PriorityFactionKill = 2
	PriorityInvestigate = 3
	PriorityMark        = 4
	PriorityPotion      = 5
)

// Resource is a limited per-player ability charge.
type Resource string

const (
	ResourcePoison   Resource = "poison"
	ResourceAntidote Resource = "antidote"
)

// RoleDefinition describes a role. Definitions are immutable once they are in a catalog.
type RoleDefinition struct {
	Name          RoleName
	Faction       Faction
	NightPriority int
	Actions       []ActionKind
	CanTargetSelf bool
	MaxUses       map[Resource]int

	// Leader marks the role whose vote decides the faction kill.
	Leader bool
	// NoRepeatTarget forbids picking last night's target again.
	NoRepeatTarget bool
	// Revenge marks the delayed revenge ability.
	Revenge bool

	Description string
	Prompt      string
}

// HasNightAction reports whether the role acts during the night.
func (d *RoleDefinition) HasNightAction() bool {
	return d.NightPriority != NoNightAction && len(d.Actions) > 0
}

// Allows reports whether the role may submit the given action kind.
func (d *RoleDefinition) Allows(kind ActionKind) bool {
	for _, a := range d.Actions {
		if a == kind {
			return true
		}
	}
	return false
}

// resourceFor returns the resource spent by an action kind, if any.
func resourceFor(kind ActionKind) (Resource, bool) {
	switch kind {
	case ActionPoison:
		return ResourcePoison, true
	case ActionRevive:
		return ResourceAntidote, true
	}
	return "", false
}

// RoleCatalog is the static table of role definitions.
type RoleCatalog struct {
	roles  map[RoleName]*RoleDefinition
	order  []RoleName
	filler RoleName
}

// NewRoleCatalog builds a catalog. The filler role must be one of defs.
func NewRoleCatalog(filler RoleName, defs ...RoleDefinition) (*RoleCatalog, error) {
	c := &RoleCatalog{roles: make(map[RoleName]*RoleDefinition, len(defs)), filler: filler}
	for i := range defs {
		d := defs[i]
		if d.Name == "" {
			return nil, &ConfigurationError{Reason: "role without a name"}
		}
		if _, dup := c.roles[d.Name]; dup {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate role %q", d.Name)}
		}
		if len(d.Actions) == 0 {
			d.NightPriority = NoNightAction
		}
		d.Actions = append([]ActionKind(nil), d.Actions...)
		uses := make(map[Resource]int, len(d.MaxUses))
		for r, n := range d.MaxUses {
			uses[r] = n
		}
		d.MaxUses = uses
		c.roles[d.Name] = &d
		c.order = append(c.order, d.Name)
	}
	f, ok := c.roles[filler]
	if !ok {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("filler role %q is not in the catalog", filler)}
	}
	if f.HasNightAction() {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("filler role %q must not act at night", filler)}
	}
	return c, nil
}

// Lookup returns the definition for name.
func (c *RoleCatalog) Lookup(name RoleName) (*RoleDefinition, bool) {
	d, ok := c.roles[name]
	return d, ok
}

// LookupFold is Lookup with case-insensitive matching, for user input.
func (c *RoleCatalog) LookupFold(name string) (*RoleDefinition, bool) {
	name = strings.TrimSpace(name)
	for _, n := range c.order {
		if strings.EqualFold(string(n), name) {
			return c.roles[n], true
		}
	}
	return nil, false
}

// Filler returns the default role used to pad the role pool.
func (c *RoleCatalog) Filler() *RoleDefinition {
	return c.roles[c.filler]
}

// Names lists role names in catalog order.
func (c *RoleCatalog) Names() []RoleName {
	return append([]RoleName(nil), c.order...)
}

var defaultRoles = []RoleDefinition{
	{
		Name:          RoleVillager,
		Faction:       FactionVillage,
		NightPriority: NoNightAction,
		Description:   "No special powers, relies on deduction and discussion.",
	},
	{
		Name:          RoleWerewolf,
		Faction:       FactionWerewolf,
		NightPriority: PriorityFactionKill,
		Actions:       []ActionKind{ActionKill},
		Description:   "Knows the pack, votes with it to kill a villager at night.",
		Prompt:        "Choose who the pack should kill tonight.",
	},
	{
		Name:          RoleAlphaWerewolf,
		Faction:       FactionWerewolf,
		NightPriority: PriorityFactionKill,
		Actions:       []ActionKind{ActionKill},
		Leader:        true,
		Description:   "Leads the pack. While alive, their vote decides the kill.",
		Prompt:        "Choose the pack's victim. Your choice is final.",
	},
	{
		Name:          RoleWarden,
		Faction:       FactionVillage,
		NightPriority: PriorityFullBlock,
		Actions:       []ActionKind{ActionWard},
		Description:   "Wards one player against all harm for the night and the following day vote.",
		Prompt:        "Choose a player to ward against all harm.",
	},
	{
		Name:           RoleDoctor,
		Faction:        FactionVillage,
		NightPriority:  PriorityLifeProtect,
		Actions:        []ActionKind{ActionProtect},
		CanTargetSelf:  true,
		NoRepeatTarget: true,
		Description:    "Protects one player from the werewolf attack each night, never the same player twice in a row.",
		Prompt:         "Choose a player to protect from the werewolves.",
	},
	{
		Name:          RoleBodyguard,
		Faction:       FactionVillage,
		NightPriority: PriorityLifeProtect,
		Actions:       []ActionKind{ActionGuard},
		Description:   "Guards one player from the werewolf attack. Guarding a werewolf costs their own life.",
		Prompt:        "Choose a player to guard tonight.",
	},
	{
		Name:          RoleSeer,
		Faction:       FactionVillage,
		NightPriority: PriorityInvestigate,
		Actions:       []ActionKind{ActionInvestigate},
		Description:   "Investigates one player per night to learn their faction.",
		Prompt:        "Choose a player to investigate.",
	},
	{
		Name:          RoleHunter,
		Faction:       FactionVillage,
		NightPriority: PriorityMark,
		Actions:       []ActionKind{ActionMark},
		Revenge:       true,
		Description:   "Marks a player. When the Hunter dies, the marked player dies too.",
		Prompt:        "Choose who you will take down with you.",
	},
	{
		Name:          RoleWitch,
		Faction:       FactionVillage,
		NightPriority: PriorityPotion,
		Actions:       []ActionKind{ActionPoison, ActionRevive},
		CanTargetSelf: true,
		MaxUses:       map[Resource]int{ResourcePoison: 1, ResourceAntidote: 1},
		Description:   "Has one poison potion and one antidote for the whole game.",
		Prompt:        "Poison a player or revive the werewolves' victim.",
	},
	{
		Name:          RoleWanderer,
		Faction:       FactionNeutral,
		NightPriority: NoNightAction,
		Description:   "A drifter with no allegiance and no powers.",
	},
}

// DefaultCatalog returns the built-in role catalog with Villager as filler.
func DefaultCatalog() *RoleCatalog {
	c, err := NewRoleCatalog(RoleVillager, defaultRoles...)
	if err != nil {
		panic(err)
	}
	return c
}
