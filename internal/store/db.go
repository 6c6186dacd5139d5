// Package store persists users, worlds, cards, dungeons and match history.
package store

import (
	"context"
	"time"

	"github.com/deakteri/damareen/internal/auth"
	"github.com/deakteri/damareen/internal/game"
)

// Store is the persistence interface consumed by the rest of the backend.
// Lookup methods return (nil, nil) when the record does not exist.
type Store interface {
	Close() error
	Migrate() error

	// Users
	CreateUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id string) (*User, error)
	UserByLogin(ctx context.Context, usernameOrEmail string) (*User, error)
	UserByVerificationToken(ctx context.Context, token string) (*User, error)
	UserByLoginToken(ctx context.Context, token string) (*User, error)
	UpdateUserVerification(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id string) error

	// Worlds and membership
	CreateWorld(ctx context.Context, w *World) error
	WorldByID(ctx context.Context, id string) (*World, error)
	SetWorldRole(ctx context.Context, userID, worldID string, role auth.Role) error
	WorldRole(ctx context.Context, userID, worldID string) (auth.Role, error)

	// Cards
	CreateCard(ctx context.Context, c *game.Card) error
	CardByID(ctx context.Context, id string) (*game.Card, error)
	CardsByIDs(ctx context.Context, ids []string) ([]*game.Card, error)
	CardsByOwner(ctx context.Context, ownerID string) ([]*game.Card, error)
	ActiveDeck(ctx context.Context, ownerID string) ([]*game.Card, error)
	UpdateCardPositions(ctx context.Context, positions []game.PositionUpdate) error

	// Dungeons
	CreateDungeon(ctx context.Context, d *game.Dungeon, positions []game.PositionUpdate) (*game.Dungeon, error)
	DungeonByID(ctx context.Context, id string) (*game.Dungeon, error)

	// Match history
	SaveMatch(ctx context.Context, m *Match) error
	MatchesByPlayer(ctx context.Context, playerID string, limit int) ([]Match, error)
}

// User is a registered account.
type User struct {
	ID                  string    `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	PasswordHash        string    `json:"-"`
	EmailVerified       bool      `json:"email_verified"`
	VerificationToken   string    `json:"-"`
	VerificationExpires time.Time `json:"-"`
	LoginToken          string    `json:"-"`
	LoginTokenExpires   time.Time `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
}

// World groups cards and dungeons under one setting.
type World struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Match records one resolved battle for the player's history.
type Match struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id"`
	DungeonID string    `json:"dungeon_id"`
	CardIDs   []string  `json:"card_ids"`
	PlayerWon bool      `json:"player_won"`
	CreatedAt time.Time `json:"created_at"`
}
