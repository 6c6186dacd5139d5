package api

import (
	"net/http"
	"strings"

	apperrors "github.com/deakteri/damareen/internal/errors"
	"github.com/deakteri/damareen/internal/game"
	"github.com/deakteri/damareen/internal/store"
)

// handleCreateDungeon composes a new dungeon. Master-only per world.
func (s *Server) handleCreateDungeon(w http.ResponseWriter, r *http.Request) {
	var req createDungeonRequest
	if err := s.decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	if err := s.guard.RequireMaster(r.Context(), callerID(r), req.WorldID); err != nil {
		s.writeErr(w, r, err)
		return
	}

	dungeon, err := s.composer.Compose(r.Context(), strings.TrimSpace(req.WorldID), req.Name, req.CardIDs)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "dungeon created",
		"dungeon": dungeon,
	})
}

// handleSetDeck sets the caller's active deck.
func (s *Server) handleSetDeck(w http.ResponseWriter, r *http.Request) {
	var req setDeckRequest
	if err := s.decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	cards, err := s.assigner.SetDeck(r.Context(), callerID(r), req.CardIDs)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "deck updated",
		"cards":   cards,
	})
}

// handleBattle resolves a battle between the caller's active deck and a
// dungeon, then records the outcome in the match history.
func (s *Server) handleBattle(w http.ResponseWriter, r *http.Request) {
	var req battleRequest
	if err := s.decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	dungeonID := strings.TrimSpace(req.DungeonID)
	if dungeonID == "" {
		s.writeValidationErr(w, r, "dungeon id is required")
		return
	}

	result, err := s.resolver.Resolve(r.Context(), callerID(r), dungeonID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	// History is best effort; a lost record never fails a resolved battle.
	match := &store.Match{
		PlayerID:  callerID(r),
		DungeonID: result.DungeonID,
		CardIDs:   playerLineup(result),
		PlayerWon: result.Winner == game.WinnerPlayer,
	}
	if err := s.store.SaveMatch(r.Context(), match); err != nil {
		s.logger.Printf("match_record_failed player=%s dungeon=%s err=%v", match.PlayerID, match.DungeonID, err)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "battle resolved",
		"result":  result,
	})
}

// handleListBattles returns the caller's recent match history.
func (s *Server) handleListBattles(w http.ResponseWriter, r *http.Request) {
	matches, err := s.store.MatchesByPlayer(r.Context(), callerID(r), 50)
	if err != nil {
		s.writeErr(w, r, apperrors.Wrap(apperrors.KindInternal, "load match history", err))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
	})
}

// playerLineup extracts the player's paired card ids in battle order.
func playerLineup(result *game.MatchResult) []string {
	ids := make([]string, 0, len(result.Pairs))
	for _, pair := range result.Pairs {
		ids = append(ids, pair.PlayerCard.ID)
	}
	return ids
}
