package auth

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/deakteri/damareen/internal/errors"
)

// Role is a user's standing inside a world. Absence of a membership row reads
// as RoleNone, which is distinct from an explicit member row.
type Role string

const (
	RoleNone   Role = ""
	RoleMember Role = "member"
	RoleMaster Role = "master"
)

// RoleStore looks up a user's role inside a world.
type RoleStore interface {
	// WorldRole returns RoleNone when the user has no membership.
	WorldRole(ctx context.Context, userID, worldID string) (Role, error)
}

// Guard decides whether a caller holds master rights over a world.
type Guard struct {
	store RoleStore
}

// NewGuard creates a guard backed by store.
func NewGuard(store RoleStore) *Guard {
	return &Guard{store: store}
}

// IsMaster reports whether userID is a master of worldID. The world id is
// trimmed to its canonical form before lookup.
func (g *Guard) IsMaster(ctx context.Context, userID, worldID string) (bool, error) {
	role, err := g.store.WorldRole(ctx, userID, strings.TrimSpace(worldID))
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindInternal, "look up world role", err)
	}
	return role == RoleMaster, nil
}

// RequireMaster fails with a forbidden error when the caller is not a master
// of the world.
func (g *Guard) RequireMaster(ctx context.Context, userID, worldID string) error {
	master, err := g.IsMaster(ctx, userID, worldID)
	if err != nil {
		return err
	}
	if !master {
		return apperrors.New(apperrors.KindForbidden, fmt.Sprintf("caller is not a master of world %q", worldID))
	}
	return nil
}
