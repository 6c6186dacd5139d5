package game

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/deakteri/damareen/internal/errors"
)

// ComposerStore is the persistence surface the composer needs.
type ComposerStore interface {
	// CardsByIDs resolves ids to cards, omitting ids that do not exist.
	CardsByIDs(ctx context.Context, ids []string) ([]*Card, error)

	// CreateDungeon persists the dungeon and applies the position batch in a
	// single transaction; either both land or neither does.
	CreateDungeon(ctx context.Context, d *Dungeon, positions []PositionUpdate) (*Dungeon, error)
}

// Composer validates candidate encounter line-ups and creates dungeons.
type Composer struct {
	store ComposerStore
}

// NewComposer creates a dungeon composer backed by store.
func NewComposer(store ComposerStore) *Composer {
	return &Composer{store: store}
}

// Compose validates cardIDs as an encounter list for a new dungeon and, when
// every rule passes, assigns 1-based battle positions matching the submitted
// order and persists the dungeon. Validation is completed fully before any
// mutation happens.
func (c *Composer) Compose(ctx context.Context, worldID, name string, cardIDs []string) (*Dungeon, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.New(apperrors.KindValidation, "dungeon name is required")
	}
	if strings.TrimSpace(worldID) == "" {
		return nil, apperrors.New(apperrors.KindValidation, "world id is required")
	}
	if !ValidSize(len(cardIDs)) {
		return nil, apperrors.New(apperrors.KindValidation, "invalid dungeon size: must be 1, 4 or 6 cards")
	}

	cards, err := c.resolveAll(ctx, cardIDs)
	if err != nil {
		return nil, err
	}

	if err := checkLeaderPlacement(cards); err != nil {
		return nil, err
	}

	positions := make([]PositionUpdate, len(cards))
	for i, card := range cards {
		positions[i] = PositionUpdate{CardID: card.ID, Position: i + 1}
	}

	dungeon := &Dungeon{
		WorldID: worldID,
		Name:    name,
		CardIDs: append([]string(nil), cardIDs...),
	}
	created, err := c.store.CreateDungeon(ctx, dungeon, positions)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "persist dungeon", err)
	}
	return created, nil
}

// resolveAll loads every card id, failing with a not-found error if any id is
// missing. A partial match is still an error.
func (c *Composer) resolveAll(ctx context.Context, cardIDs []string) ([]*Card, error) {
	found, err := c.store.CardsByIDs(ctx, cardIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "load cards", err)
	}

	byID := make(map[string]*Card, len(found))
	for _, card := range found {
		byID[card.ID] = card
	}

	cards := make([]*Card, 0, len(cardIDs))
	for _, id := range cardIDs {
		card, ok := byID[id]
		if !ok {
			return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("card %q not found", id))
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// checkLeaderPlacement enforces the ordering rule: a single-card line-up has
// no leader, a 4- or 6-card line-up has its leader in the final slot and
// nowhere else.
func checkLeaderPlacement(cards []*Card) error {
	last := len(cards) - 1
	if len(cards) == 1 {
		if cards[0].Role.IsLeader() {
			return apperrors.New(apperrors.KindValidation, "a single-card dungeon cannot contain a leader")
		}
		return nil
	}
	if !cards[last].Role.IsLeader() {
		return apperrors.New(apperrors.KindValidation, "the last card must be a leader")
	}
	for _, card := range cards[:last] {
		if card.Role.IsLeader() {
			return apperrors.New(apperrors.KindValidation, fmt.Sprintf("leader card %q must be in the last slot", card.ID))
		}
	}
	return nil
}
