package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/deakteri/damareen/internal/auth"
	apperrors "github.com/deakteri/damareen/internal/errors"
	"github.com/deakteri/damareen/internal/game"
)

// SQLiteDB implements the Store interface using SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// newID returns a collision-free 32-char hex identifier.
func newID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Close closes the database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate runs database migrations.
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email_verified INTEGER NOT NULL DEFAULT 0,
			verification_token TEXT,
			verification_expires DATETIME,
			login_token TEXT,
			login_token_expires DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS worlds (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS world_members (
			user_id TEXT NOT NULL,
			world_id TEXT NOT NULL,
			role TEXT NOT NULL,
			PRIMARY KEY (user_id, world_id)
		)`,
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			world_id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			health INTEGER NOT NULL,
			damage INTEGER NOT NULL,
			type TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			is_leader INTEGER NOT NULL DEFAULT 0,
			base_card_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS dungeons (
			id TEXT PRIMARY KEY,
			world_id TEXT NOT NULL,
			name TEXT NOT NULL,
			card_ids TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			dungeon_id TEXT NOT NULL,
			card_ids TEXT NOT NULL,
			player_won INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_owner ON cards(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_owner_position ON cards(owner_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_world ON cards(world_id)`,
		`CREATE INDEX IF NOT EXISTS idx_dungeons_world ON dungeons(world_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_player ON matches(player_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_users_verification ON users(verification_token)`,
		`CREATE INDEX IF NOT EXISTS idx_users_login_token ON users(login_token)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// isUniqueViolation checks if the error is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// nullTime maps the zero time to NULL on insert.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// CreateUser inserts a new user, assigning an id when none is set.
func (s *SQLiteDB) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO users (
		id, username, email, password_hash, email_verified,
		verification_token, verification_expires, login_token, login_token_expires, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	verifiedInt := 0
	if u.EmailVerified {
		verifiedInt = 1
	}

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, verifiedInt,
		u.VerificationToken, nullTime(u.VerificationExpires),
		u.LoginToken, nullTime(u.LoginTokenExpires), u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return apperrors.Wrap(apperrors.KindConflict, "username or email already exists", err)
	}
	return err
}

const userColumns = `id, username, email, password_hash, email_verified,
	verification_token, verification_expires, login_token, login_token_expires, created_at`

// scanUser reads one user row, mapping NULLs back to zero values.
func scanUser(row *sql.Row) (*User, error) {
	var u User
	var verifiedInt int
	var verificationToken, loginToken sql.NullString
	var verificationExpires, loginTokenExpires sql.NullTime

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &verifiedInt,
		&verificationToken, &verificationExpires, &loginToken, &loginTokenExpires, &u.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u.EmailVerified = verifiedInt == 1
	u.VerificationToken = verificationToken.String
	u.LoginToken = loginToken.String
	if verificationExpires.Valid {
		u.VerificationExpires = verificationExpires.Time
	}
	if loginTokenExpires.Valid {
		u.LoginTokenExpires = loginTokenExpires.Time
	}
	return &u, nil
}

// UserByID retrieves a user by id.
func (s *SQLiteDB) UserByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

// UserByLogin retrieves a user by username or email.
func (s *SQLiteDB) UserByLogin(ctx context.Context, usernameOrEmail string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? OR email = ?`
	return scanUser(s.db.QueryRowContext(ctx, query, usernameOrEmail, usernameOrEmail))
}

// UserByVerificationToken retrieves a user by its email verification token.
func (s *SQLiteDB) UserByVerificationToken(ctx context.Context, token string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verification_token = ?`
	return scanUser(s.db.QueryRowContext(ctx, query, token))
}

// UserByLoginToken retrieves a user by its login confirmation token.
func (s *SQLiteDB) UserByLoginToken(ctx context.Context, token string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login_token = ?`
	return scanUser(s.db.QueryRowContext(ctx, query, token))
}

// UpdateUserVerification persists the verification state and tokens.
func (s *SQLiteDB) UpdateUserVerification(ctx context.Context, u *User) error {
	query := `UPDATE users SET
		email_verified = ?, verification_token = ?, verification_expires = ?,
		login_token = ?, login_token_expires = ?
		WHERE id = ?`

	verifiedInt := 0
	if u.EmailVerified {
		verifiedInt = 1
	}

	_, err := s.db.ExecContext(ctx, query,
		verifiedInt, u.VerificationToken, nullTime(u.VerificationExpires),
		u.LoginToken, nullTime(u.LoginTokenExpires), u.ID,
	)
	return err
}

// DeleteUser removes a user and its memberships.
func (s *SQLiteDB) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM world_members WHERE user_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateWorld inserts a new world, assigning an id when none is set.
func (s *SQLiteDB) CreateWorld(ctx context.Context, w *World) error {
	if w.ID == "" {
		w.ID = newID()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO worlds (id, name, created_at) VALUES (?, ?, ?)`,
		w.ID, w.Name, w.CreatedAt,
	)
	return err
}

// WorldByID retrieves a world by id.
func (s *SQLiteDB) WorldByID(ctx context.Context, id string) (*World, error) {
	var w World
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM worlds WHERE id = ?`, id,
	).Scan(&w.ID, &w.Name, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// SetWorldRole upserts a user's role inside a world.
func (s *SQLiteDB) SetWorldRole(ctx context.Context, userID, worldID string, role auth.Role) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO world_members (user_id, world_id, role) VALUES (?, ?, ?)
		ON CONFLICT(user_id, world_id) DO UPDATE SET role = excluded.role`,
		userID, worldID, string(role),
	)
	return err
}

// WorldRole returns the user's role in a world; absence reads as RoleNone.
func (s *SQLiteDB) WorldRole(ctx context.Context, userID, worldID string) (auth.Role, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM world_members WHERE user_id = ? AND world_id = ?`,
		userID, worldID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return auth.RoleNone, nil
	}
	if err != nil {
		return auth.RoleNone, err
	}
	return auth.Role(role), nil
}

// CreateCard inserts a new card, assigning an id when none is set.
func (s *SQLiteDB) CreateCard(ctx context.Context, c *game.Card) error {
	if c.ID == "" {
		c.ID = newID()
	}

	leaderInt := 0
	if c.Role.IsLeader() {
		leaderInt = 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (id, world_id, owner_id, name, health, damage, type, position, is_leader, base_card_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.WorldID, c.OwnerID, c.Name, c.Health, c.Damage, string(c.Type),
		c.Position, leaderInt, c.Role.BaseCardID,
	)
	return err
}

const cardColumns = `id, world_id, owner_id, name, health, damage, type, position, is_leader, base_card_id`

// scanCards reads card rows, rebuilding the role variant from its columns.
func scanCards(rows *sql.Rows) ([]*game.Card, error) {
	var cards []*game.Card
	for rows.Next() {
		var c game.Card
		var cardType string
		var leaderInt int
		var baseCardID string
		if err := rows.Scan(
			&c.ID, &c.WorldID, &c.OwnerID, &c.Name, &c.Health, &c.Damage,
			&cardType, &c.Position, &leaderInt, &baseCardID,
		); err != nil {
			return nil, err
		}
		c.Type = game.Type(cardType)
		if leaderInt == 1 {
			c.Role = game.LeaderRole(baseCardID)
		} else {
			c.Role = game.NormalRole()
		}
		cards = append(cards, &c)
	}
	return cards, rows.Err()
}

// CardByID retrieves a card by id.
func (s *SQLiteDB) CardByID(ctx context.Context, id string) (*game.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards, err := scanCards(rows)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, nil
	}
	return cards[0], nil
}

// CardsByIDs resolves ids to cards, omitting ids that do not exist.
func (s *SQLiteDB) CardsByIDs(ctx context.Context, ids []string) ([]*game.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCards(rows)
}

// CardsByOwner retrieves every card owned by ownerID.
func (s *SQLiteDB) CardsByOwner(ctx context.Context, ownerID string) ([]*game.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE owner_id = ? ORDER BY name, id`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCards(rows)
}

// ActiveDeck retrieves the owner's cards with a non-zero position, ordered by
// position ascending.
func (s *SQLiteDB) ActiveDeck(ctx context.Context, ownerID string) ([]*game.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE owner_id = ? AND position != 0 ORDER BY position`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCards(rows)
}

// UpdateCardPositions applies the batch in one transaction; a missing card
// rolls the whole batch back.
func (s *SQLiteDB) UpdateCardPositions(ctx context.Context, positions []game.PositionUpdate) error {
	if len(positions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updatePositionsTx(ctx, tx, positions); err != nil {
		return err
	}
	return tx.Commit()
}

func updatePositionsTx(ctx context.Context, tx *sql.Tx, positions []game.PositionUpdate) error {
	stmt, err := tx.PrepareContext(ctx, `UPDATE cards SET position = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range positions {
		res, err := stmt.ExecContext(ctx, p.Position, p.CardID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("card %q not found during position update", p.CardID)
		}
	}
	return nil
}

// CreateDungeon persists the dungeon and its card position batch in a single
// transaction so a failed position update never leaves a dangling dungeon.
func (s *SQLiteDB) CreateDungeon(ctx context.Context, d *game.Dungeon, positions []game.PositionUpdate) (*game.Dungeon, error) {
	if d.ID == "" {
		d.ID = newID()
	}

	cardIDs, err := json.Marshal(d.CardIDs)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dungeons (id, world_id, name, card_ids) VALUES (?, ?, ?, ?)`,
		d.ID, d.WorldID, d.Name, string(cardIDs),
	); err != nil {
		return nil, err
	}
	if err := updatePositionsTx(ctx, tx, positions); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return d, nil
}

// DungeonByID retrieves a dungeon by id.
func (s *SQLiteDB) DungeonByID(ctx context.Context, id string) (*game.Dungeon, error) {
	var d game.Dungeon
	var cardIDs string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, world_id, name, card_ids FROM dungeons WHERE id = ?`, id,
	).Scan(&d.ID, &d.WorldID, &d.Name, &cardIDs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cardIDs), &d.CardIDs); err != nil {
		return nil, fmt.Errorf("decode dungeon card ids: %w", err)
	}
	return &d, nil
}

// SaveMatch records a resolved battle.
func (s *SQLiteDB) SaveMatch(ctx context.Context, m *Match) error {
	if m.ID == "" {
		m.ID = newID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	cardIDs, err := json.Marshal(m.CardIDs)
	if err != nil {
		return err
	}

	wonInt := 0
	if m.PlayerWon {
		wonInt = 1
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO matches (id, player_id, dungeon_id, card_ids, player_won, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.PlayerID, m.DungeonID, string(cardIDs), wonInt, m.CreatedAt,
	)
	return err
}

// MatchesByPlayer retrieves the player's match history, newest first.
func (s *SQLiteDB) MatchesByPlayer(ctx context.Context, playerID string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player_id, dungeon_id, card_ids, player_won, created_at
		FROM matches WHERE player_id = ? ORDER BY created_at DESC LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var cardIDs string
		var wonInt int
		if err := rows.Scan(&m.ID, &m.PlayerID, &m.DungeonID, &cardIDs, &wonInt, &m.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cardIDs), &m.CardIDs); err != nil {
			return nil, fmt.Errorf("decode match card ids: %w", err)
		}
		m.PlayerWon = wonInt == 1
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
