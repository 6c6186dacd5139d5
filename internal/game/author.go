package game

import (
	"fmt"
	"strings"

	apperrors "github.com/deakteri/damareen/internal/errors"
)

// Boost selects which stat is doubled when deriving a leader.
type Boost string

const (
	BoostDamage Boost = "damage"
	BoostHealth Boost = "health"
)

// NewCard validates authoring input and returns an unpersisted normal card.
// The id is assigned by the store on insert.
func NewCard(worldID, ownerID, name string, health, damage int, t Type) (*Card, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.New(apperrors.KindValidation, "card name is required")
	}
	if strings.TrimSpace(worldID) == "" {
		return nil, apperrors.New(apperrors.KindValidation, "world id is required")
	}
	if !t.Valid() {
		return nil, apperrors.New(apperrors.KindValidation, fmt.Sprintf("unknown card type %q", string(t)))
	}
	if health < MinHealth || health > MaxHealth {
		return nil, apperrors.New(apperrors.KindValidation, fmt.Sprintf("health must be between %d and %d", MinHealth, MaxHealth))
	}
	if damage < MinDamage || damage > MaxDamage {
		return nil, apperrors.New(apperrors.KindValidation, fmt.Sprintf("damage must be between %d and %d", MinDamage, MaxDamage))
	}
	return &Card{
		WorldID: worldID,
		OwnerID: ownerID,
		Name:    name,
		Health:  health,
		Damage:  damage,
		Type:    t,
		Role:    NormalRole(),
	}, nil
}

// DeriveLeader builds a leader card from base by doubling the chosen stat,
// capped at the stat maximum. Leaders are never derived from other leaders.
func DeriveLeader(base *Card, boost Boost) (*Card, error) {
	if base.Role.IsLeader() {
		return nil, apperrors.New(apperrors.KindValidation, "a leader cannot be derived from another leader")
	}

	leader := *base
	leader.ID = ""
	leader.Position = 0
	leader.Role = LeaderRole(base.ID)

	switch boost {
	case BoostDamage:
		leader.Damage = base.Damage * 2
		if leader.Damage > MaxDamage {
			leader.Damage = MaxDamage
		}
	case BoostHealth:
		leader.Health = base.Health * 2
		if leader.Health > MaxHealth {
			leader.Health = MaxHealth
		}
	default:
		return nil, apperrors.New(apperrors.KindValidation, fmt.Sprintf("boost must be %q or %q", BoostDamage, BoostHealth))
	}
	return &leader, nil
}
