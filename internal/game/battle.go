package game

import (
	"context"
	"fmt"

	apperrors "github.com/deakteri/damareen/internal/errors"
)

// BattleStore is the persistence surface the battle resolver needs. The
// resolver only reads; a snapshot observed mid-update by another caller may
// be stale but is internally consistent.
type BattleStore interface {
	// DungeonByID returns (nil, nil) when the dungeon does not exist.
	DungeonByID(ctx context.Context, id string) (*Dungeon, error)

	CardsByIDs(ctx context.Context, ids []string) ([]*Card, error)

	// ActiveDeck returns the owner's cards with a non-zero position, ordered
	// by position ascending.
	ActiveDeck(ctx context.Context, ownerID string) ([]*Card, error)
}

// Pair winners and the reasons a pair was decided.
const (
	WinnerPlayer  = "player"
	WinnerDungeon = "dungeon"

	// ReasonDamage: one side could one-shot the other and the other could
	// not strike back lethally.
	ReasonDamage = "damage"

	// ReasonType: neither or both sides could one-shot, and the type cycle
	// decided the pair.
	ReasonType = "type"

	// ReasonDungeonFallback: equal types or no cyclic advantage; the house
	// takes the pair.
	ReasonDungeonFallback = "dungeon_fallback"
)

// PairResult is the outcome of one dungeon card fighting one player card.
type PairResult struct {
	Position    int    `json:"position"`
	DungeonCard Card   `json:"dungeon_card"`
	PlayerCard  Card   `json:"player_card"`
	Winner      string `json:"winner"`
	Reason      string `json:"reason"`
}

// MatchResult is the full breakdown of a resolved battle.
type MatchResult struct {
	DungeonID   string       `json:"dungeon_id"`
	Pairs       []PairResult `json:"pairs"`
	PlayerWins  int          `json:"player_wins"`
	DungeonWins int          `json:"dungeon_wins"`
	Winner      string       `json:"winner"`
}

// Resolver pairs a dungeon's encounter cards against a player's active deck
// and computes a match outcome. Resolution mutates no persistent state.
type Resolver struct {
	store BattleStore
}

// NewResolver creates a battle resolver backed by store.
func NewResolver(store BattleStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve loads the dungeon's encounter and the caller's active deck, scores
// each index-aligned pair, and aggregates the match winner. Trailing unpaired
// cards on either side are not scored.
func (r *Resolver) Resolve(ctx context.Context, callerID, dungeonID string) (*MatchResult, error) {
	dungeon, err := r.store.DungeonByID(ctx, dungeonID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "load dungeon", err)
	}
	if dungeon == nil {
		return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("dungeon %q not found", dungeonID))
	}

	dungeonCards, err := r.encounterCards(ctx, dungeon)
	if err != nil {
		return nil, err
	}

	deck, err := r.store.ActiveDeck(ctx, callerID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "load deck", err)
	}
	// Re-number 1..N for display only; stored positions are untouched.
	deckCards := make([]Card, len(deck))
	for i, card := range deck {
		deckCards[i] = *card
		deckCards[i].Position = i + 1
	}

	result := &MatchResult{DungeonID: dungeon.ID}
	n := len(dungeonCards)
	if len(deckCards) < n {
		n = len(deckCards)
	}
	for i := 0; i < n; i++ {
		pair := resolvePair(dungeonCards[i], deckCards[i])
		pair.Position = i + 1
		if pair.Winner == WinnerPlayer {
			result.PlayerWins++
		} else {
			result.DungeonWins++
		}
		result.Pairs = append(result.Pairs, pair)
	}

	// Match-level ties go to the player even though pair-level ties go to
	// the dungeon. The asymmetry is deliberate.
	if result.PlayerWins >= result.DungeonWins {
		result.Winner = WinnerPlayer
	} else {
		result.Winner = WinnerDungeon
	}
	return result, nil
}

// encounterCards resolves the dungeon's card ids in list order. Ids that no
// longer resolve are skipped; the relative order of the rest is preserved.
func (r *Resolver) encounterCards(ctx context.Context, dungeon *Dungeon) ([]Card, error) {
	found, err := r.store.CardsByIDs(ctx, dungeon.CardIDs)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "load encounter cards", err)
	}
	byID := make(map[string]*Card, len(found))
	for _, card := range found {
		byID[card.ID] = card
	}

	cards := make([]Card, 0, len(dungeon.CardIDs))
	for _, id := range dungeon.CardIDs {
		if card, ok := byID[id]; ok {
			cards = append(cards, *card)
		}
	}
	return cards, nil
}

// resolvePair decides a single pairing. A one-shot kill by exactly one side
// always decides the pair; otherwise the type cycle applies, and when it is
// silent the dungeon takes the pair.
func resolvePair(dungeonCard, playerCard Card) PairResult {
	pair := PairResult{DungeonCard: dungeonCard, PlayerCard: playerCard}

	playerCanKill := playerCard.Damage > dungeonCard.Health
	dungeonCanKill := dungeonCard.Damage > playerCard.Health

	switch {
	case playerCanKill && !dungeonCanKill:
		pair.Winner = WinnerPlayer
		pair.Reason = ReasonDamage
	case dungeonCanKill && !playerCanKill:
		pair.Winner = WinnerDungeon
		pair.Reason = ReasonDamage
	case playerCard.Type != dungeonCard.Type && playerCard.Type.Beats(dungeonCard.Type):
		pair.Winner = WinnerPlayer
		pair.Reason = ReasonType
	case playerCard.Type != dungeonCard.Type && dungeonCard.Type.Beats(playerCard.Type):
		pair.Winner = WinnerDungeon
		pair.Reason = ReasonType
	default:
		pair.Winner = WinnerDungeon
		pair.Reason = ReasonDungeonFallback
	}
	return pair
}
