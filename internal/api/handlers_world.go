package api

import (
	"net/http"
	"strings"

	"github.com/deakteri/damareen/internal/auth"
	apperrors "github.com/deakteri/damareen/internal/errors"
	"github.com/deakteri/damareen/internal/game"
	"github.com/deakteri/damareen/internal/store"
)

// handleCreateWorld creates a world and grants the creator master rights.
func (s *Server) handleCreateWorld(w http.ResponseWriter, r *http.Request) {
	var req createWorldRequest
	if err := s.decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.writeValidationErr(w, r, "world name is required")
		return
	}

	world := &store.World{Name: name}
	if err := s.store.CreateWorld(r.Context(), world); err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "create world", err))
		return
	}
	if err := s.store.SetWorldRole(r.Context(), callerID(r), world.ID, auth.RoleMaster); err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "grant master role", err))
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "world created",
		"world":   world,
	})
}

// handleJoinWorld adds the caller to a world as a member. Joining a world the
// caller already belongs to keeps the existing role.
func (s *Server) handleJoinWorld(w http.ResponseWriter, r *http.Request) {
	var req joinWorldRequest
	if err := s.decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	worldID := strings.TrimSpace(req.WorldID)
	if worldID == "" {
		s.writeValidationErr(w, r, "world id is required")
		return
	}

	world, err := s.store.WorldByID(r.Context(), worldID)
	if err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "load world", err))
		return
	}
	if world == nil {
		s.writeErr(w, r, apperrors.New(apperrors.KindNotFound, "world not found"))
		return
	}

	role, err := s.store.WorldRole(r.Context(), callerID(r), world.ID)
	if err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "load world role", err))
		return
	}
	if role == auth.RoleNone {
		role = auth.RoleMember
		if err := s.store.SetWorldRole(r.Context(), callerID(r), world.ID, role); err != nil {
			s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "join world", err))
			return
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "world joined",
		"world":   world,
		"role":    role,
	})
}

// handleMasterStatus reports whether the caller is a master of the world.
func (s *Server) handleMasterStatus(w http.ResponseWriter, r *http.Request) {
	worldID := strings.TrimSpace(r.URL.Query().Get("world_id"))
	if worldID == "" {
		s.writeValidationErr(w, r, "world id is required")
		return
	}

	master, err := s.guard.IsMaster(r.Context(), callerID(r), worldID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"is_master": master,
		"world_id":  worldID,
	})
}

// handleCreateCard authors a new card. Master-only per world.
func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := s.decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	if err := s.guard.RequireMaster(r.Context(), callerID(r), req.WorldID); err != nil {
		s.writeErr(w, r, err)
		return
	}

	ownerID := strings.TrimSpace(req.OwnerID)
	if ownerID == "" {
		ownerID = callerID(r)
	}

	card, err := game.NewCard(req.WorldID, ownerID, req.Name, req.Health, req.Damage, game.Type(req.Type))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.store.CreateCard(r.Context(), card); err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "create card", err))
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "card created",
		"card":    card,
	})
}

// handleCreateLeader derives a leader card from a base card by doubling one
// stat. Master-only per world.
func (s *Server) handleCreateLeader(w http.ResponseWriter, r *http.Request) {
	var req createLeaderRequest
	if err := s.decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	if err := s.guard.RequireMaster(r.Context(), callerID(r), req.WorldID); err != nil {
		s.writeErr(w, r, err)
		return
	}

	baseID := strings.TrimSpace(req.BaseCardID)
	if baseID == "" {
		s.writeValidationErr(w, r, "base card id is required")
		return
	}

	base, err := s.store.CardByID(r.Context(), baseID)
	if err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "load base card", err))
		return
	}
	if base == nil {
		s.writeErr(w, r, apperrors.New(apperrors.KindNotFound, "base card not found"))
		return
	}
	if base.WorldID != strings.TrimSpace(req.WorldID) {
		s.writeValidationErr(w, r, "base card belongs to a different world")
		return
	}

	leader, err := game.DeriveLeader(base, game.Boost(req.Boost))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.store.CreateCard(r.Context(), leader); err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "create leader", err))
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "leader created",
		"card":    leader,
	})
}
