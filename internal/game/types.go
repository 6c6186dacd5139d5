// Package game implements the Damareen rules engine: dungeon composition,
// deck assignment and battle resolution.
package game

// Type is a card's elemental type tag as stored on the wire.
type Type string

// The four elements form a cycle: fire beats earth, earth beats water,
// water beats air, air beats fire.
const (
	TypeFire  Type = "T"
	TypeEarth Type = "F"
	TypeWater Type = "V"
	TypeAir   Type = "L"
)

// Valid reports whether t is one of the four known types.
func (t Type) Valid() bool {
	switch t {
	case TypeFire, TypeEarth, TypeWater, TypeAir:
		return true
	}
	return false
}

// Beats reports whether t has the type advantage over other. Exactly one
// directed relation holds per adjacent pair in the cycle; equal types and
// unknown tags never beat anything.
func (t Type) Beats(other Type) bool {
	switch t {
	case TypeFire:
		return other == TypeEarth
	case TypeEarth:
		return other == TypeWater
	case TypeWater:
		return other == TypeAir
	case TypeAir:
		return other == TypeFire
	}
	return false
}

// RoleKind tags the two card role variants.
type RoleKind string

const (
	RoleNormal RoleKind = "normal"
	RoleLeader RoleKind = "leader"
)

// Role distinguishes normal cards from leader cards. A leader is derived
// from a base card by doubling either its damage or its health; BaseCardID
// references that base card and is set only when Kind is RoleLeader.
type Role struct {
	Kind       RoleKind `json:"kind"`
	BaseCardID string   `json:"base_card_id,omitempty"`
}

// NormalRole returns the role of an ordinary card.
func NormalRole() Role {
	return Role{Kind: RoleNormal}
}

// LeaderRole returns the role of a leader derived from baseCardID.
func LeaderRole(baseCardID string) Role {
	return Role{Kind: RoleLeader, BaseCardID: baseCardID}
}

// IsLeader reports whether the role is the leader variant.
func (r Role) IsLeader() bool {
	return r.Kind == RoleLeader
}

// Stat bounds for authored cards.
const (
	MinHealth = 1
	MaxHealth = 100
	MinDamage = 2
	MaxDamage = 100
)

// Card is a single playable card scoped to a world.
type Card struct {
	ID       string `json:"id"`
	WorldID  string `json:"world_id"`
	OwnerID  string `json:"owner_id"`
	Name     string `json:"name"`
	Health   int    `json:"health"`
	Damage   int    `json:"damage"`
	Type     Type   `json:"type"`
	Position int    `json:"position"` // 0 = not in an active deck/encounter
	Role     Role   `json:"role"`
}

// Dungeon is an ordered encounter line-up inside a world. CardIDs always has
// length 1, 4 or 6; in the multi-card sizes the final card is the leader.
type Dungeon struct {
	ID      string   `json:"id"`
	WorldID string   `json:"world_id"`
	Name    string   `json:"name"`
	CardIDs []string `json:"card_ids"`
}

// PositionUpdate pairs a card id with the battle position to assign to it.
type PositionUpdate struct {
	CardID   string
	Position int
}

// DungeonSizes lists the legal encounter list lengths.
var DungeonSizes = []int{1, 4, 6}

// ValidSize reports whether n is a legal encounter or deck size.
func ValidSize(n int) bool {
	for _, s := range DungeonSizes {
		if n == s {
			return true
		}
	}
	return false
}
