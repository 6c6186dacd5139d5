package game

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/deakteri/damareen/internal/errors"
)

// DeckStore is the persistence surface the deck assigner needs.
type DeckStore interface {
	CardsByIDs(ctx context.Context, ids []string) ([]*Card, error)

	// UpdateCardPositions applies the batch atomically; either every
	// position in the batch updates or none do.
	UpdateCardPositions(ctx context.Context, positions []PositionUpdate) error
}

// Assigner validates a player's active-card selection and assigns battle
// positions.
type Assigner struct {
	store DeckStore
}

// NewAssigner creates a deck assigner backed by store.
func NewAssigner(store DeckStore) *Assigner {
	return &Assigner{store: store}
}

// SetDeck validates cardIDs as the caller's active deck and persists 1-based
// positions matching the submitted order. The whole batch is rejected on the
// first card the caller does not own. Returns the cards in submitted order
// with positions applied.
func (a *Assigner) SetDeck(ctx context.Context, callerID string, cardIDs []string) ([]*Card, error) {
	ids := make([]string, 0, len(cardIDs))
	for _, id := range cardIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	if !ValidSize(len(ids)) {
		return nil, apperrors.New(apperrors.KindValidation, "invalid deck size: must be 1, 4 or 6 cards")
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, apperrors.New(apperrors.KindValidation, fmt.Sprintf("duplicate card id %q", id))
		}
		seen[id] = true
	}

	found, err := a.store.CardsByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "load cards", err)
	}
	byID := make(map[string]*Card, len(found))
	for _, card := range found {
		byID[card.ID] = card
	}

	cards := make([]*Card, 0, len(ids))
	for _, id := range ids {
		card, ok := byID[id]
		if !ok {
			return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("card %q not found", id))
		}
		if card.OwnerID != callerID {
			return nil, apperrors.New(apperrors.KindForbidden, fmt.Sprintf("card %q is not owned by the caller", id))
		}
		cards = append(cards, card)
	}

	positions := make([]PositionUpdate, len(cards))
	for i := range cards {
		positions[i] = PositionUpdate{CardID: cards[i].ID, Position: i + 1}
	}
	if err := a.store.UpdateCardPositions(ctx, positions); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "persist deck positions", err)
	}

	for i := range cards {
		cards[i].Position = i + 1
	}
	return cards, nil
}
