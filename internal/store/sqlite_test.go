package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/deakteri/damareen/internal/auth"
	apperrors "github.com/deakteri/damareen/internal/errors"
	"github.com/deakteri/damareen/internal/game"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUserRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &User{
		Username:            "alice",
		Email:               "alice@example.com",
		PasswordHash:        "hash",
		VerificationToken:   "verify-tok",
		VerificationExpires: time.Now().Add(time.Hour).UTC(),
	}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == "" {
		t.Fatal("CreateUser should assign an id")
	}
	if len(u.ID) != 32 {
		t.Errorf("id length = %d, want 32 hex chars", len(u.ID))
	}

	got, err := db.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if got == nil {
		t.Fatal("UserByID returned nil for an existing user")
	}
	if got.Username != "alice" || got.Email != "alice@example.com" {
		t.Errorf("got %q/%q, want alice/alice@example.com", got.Username, got.Email)
	}
	if got.EmailVerified {
		t.Error("new user should be unverified")
	}
	if got.VerificationToken != "verify-tok" {
		t.Errorf("verification token = %q", got.VerificationToken)
	}

	for _, login := range []string{"alice", "alice@example.com"} {
		got, err := db.UserByLogin(ctx, login)
		if err != nil {
			t.Fatalf("UserByLogin(%q): %v", login, err)
		}
		if got == nil || got.ID != u.ID {
			t.Errorf("UserByLogin(%q) did not find the user", login)
		}
	}

	got, err = db.UserByVerificationToken(ctx, "verify-tok")
	if err != nil {
		t.Fatalf("UserByVerificationToken: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Error("UserByVerificationToken did not find the user")
	}

	missing, err := db.UserByID(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("UserByID missing: %v", err)
	}
	if missing != nil {
		t.Error("missing user should return nil, nil")
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &User{Username: "alice", Email: "alice@example.com", PasswordHash: "h"}
	if err := db.CreateUser(ctx, first); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	tests := []struct {
		name string
		user *User
	}{
		{"duplicate username", &User{Username: "alice", Email: "other@example.com", PasswordHash: "h"}},
		{"duplicate email", &User{Username: "bob", Email: "alice@example.com", PasswordHash: "h"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := db.CreateUser(ctx, tc.user)
			if err == nil {
				t.Fatal("duplicate insert should fail")
			}
			if kind := apperrors.KindOf(err); kind != apperrors.KindConflict {
				t.Errorf("error kind = %v, want %v", kind, apperrors.KindConflict)
			}
		})
	}
}

func TestUpdateUserVerification(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &User{Username: "alice", Email: "alice@example.com", PasswordHash: "h", VerificationToken: "tok"}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u.EmailVerified = true
	u.VerificationToken = ""
	u.LoginToken = "login-tok"
	u.LoginTokenExpires = time.Now().Add(time.Hour).UTC()
	if err := db.UpdateUserVerification(ctx, u); err != nil {
		t.Fatalf("UpdateUserVerification: %v", err)
	}

	got, err := db.UserByLoginToken(ctx, "login-tok")
	if err != nil {
		t.Fatalf("UserByLoginToken: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatal("UserByLoginToken did not find the user")
	}
	if !got.EmailVerified {
		t.Error("verification flag should persist")
	}
	if got.VerificationToken != "" {
		t.Errorf("verification token should be cleared, got %q", got.VerificationToken)
	}
}

func TestDeleteUserRemovesMemberships(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &User{Username: "alice", Email: "alice@example.com", PasswordHash: "h"}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	w := &World{Name: "Damareen"}
	if err := db.CreateWorld(ctx, w); err != nil {
		t.Fatalf("CreateWorld: %v", err)
	}
	if err := db.SetWorldRole(ctx, u.ID, w.ID, auth.RoleMaster); err != nil {
		t.Fatalf("SetWorldRole: %v", err)
	}

	if err := db.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	got, err := db.UserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if got != nil {
		t.Error("deleted user should be gone")
	}
	role, err := db.WorldRole(ctx, u.ID, w.ID)
	if err != nil {
		t.Fatalf("WorldRole: %v", err)
	}
	if role != auth.RoleNone {
		t.Errorf("membership should be gone, got role %q", role)
	}
}

func TestWorldRoleUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	w := &World{Name: "Damareen"}
	if err := db.CreateWorld(ctx, w); err != nil {
		t.Fatalf("CreateWorld: %v", err)
	}

	got, err := db.WorldByID(ctx, w.ID)
	if err != nil {
		t.Fatalf("WorldByID: %v", err)
	}
	if got == nil || got.Name != "Damareen" {
		t.Fatal("WorldByID did not find the world")
	}

	role, err := db.WorldRole(ctx, "u1", w.ID)
	if err != nil {
		t.Fatalf("WorldRole: %v", err)
	}
	if role != auth.RoleNone {
		t.Errorf("absent membership should read as RoleNone, got %q", role)
	}

	if err := db.SetWorldRole(ctx, "u1", w.ID, auth.RoleMember); err != nil {
		t.Fatalf("SetWorldRole: %v", err)
	}
	if err := db.SetWorldRole(ctx, "u1", w.ID, auth.RoleMaster); err != nil {
		t.Fatalf("SetWorldRole upsert: %v", err)
	}

	role, err = db.WorldRole(ctx, "u1", w.ID)
	if err != nil {
		t.Fatalf("WorldRole: %v", err)
	}
	if role != auth.RoleMaster {
		t.Errorf("role = %q, want %q", role, auth.RoleMaster)
	}
}

func TestCardRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	normal := &game.Card{
		WorldID: "w1", OwnerID: "u1", Name: "Ember",
		Health: 30, Damage: 10, Type: game.TypeFire, Role: game.NormalRole(),
	}
	if err := db.CreateCard(ctx, normal); err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	leader := &game.Card{
		WorldID: "w1", OwnerID: "u1", Name: "Ember Lord",
		Health: 60, Damage: 10, Type: game.TypeFire, Role: game.LeaderRole(normal.ID),
	}
	if err := db.CreateCard(ctx, leader); err != nil {
		t.Fatalf("CreateCard leader: %v", err)
	}

	got, err := db.CardByID(ctx, leader.ID)
	if err != nil {
		t.Fatalf("CardByID: %v", err)
	}
	if got == nil {
		t.Fatal("CardByID returned nil for an existing card")
	}
	if !got.Role.IsLeader() || got.Role.BaseCardID != normal.ID {
		t.Errorf("leader role not rebuilt: %+v", got.Role)
	}

	got, err = db.CardByID(ctx, normal.ID)
	if err != nil {
		t.Fatalf("CardByID: %v", err)
	}
	if got.Role.IsLeader() {
		t.Error("normal card must not read back as leader")
	}

	cards, err := db.CardsByIDs(ctx, []string{normal.ID, "missing", leader.ID})
	if err != nil {
		t.Fatalf("CardsByIDs: %v", err)
	}
	if len(cards) != 2 {
		t.Errorf("CardsByIDs returned %d cards, want 2", len(cards))
	}

	owned, err := db.CardsByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("CardsByOwner: %v", err)
	}
	if len(owned) != 2 {
		t.Errorf("CardsByOwner returned %d cards, want 2", len(owned))
	}
}

func TestActiveDeckOrdering(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		c := &game.Card{
			WorldID: "w1", OwnerID: "u1", Name: name,
			Health: 10, Damage: 5, Type: game.TypeWater, Role: game.NormalRole(),
		}
		if err := db.CreateCard(ctx, c); err != nil {
			t.Fatalf("CreateCard: %v", err)
		}
		ids = append(ids, c.ID)
	}

	// Assign positions out of insertion order; leave "a" benched.
	err := db.UpdateCardPositions(ctx, []game.PositionUpdate{
		{CardID: ids[2], Position: 1},
		{CardID: ids[1], Position: 2},
	})
	if err != nil {
		t.Fatalf("UpdateCardPositions: %v", err)
	}

	deck, err := db.ActiveDeck(ctx, "u1")
	if err != nil {
		t.Fatalf("ActiveDeck: %v", err)
	}
	if len(deck) != 2 {
		t.Fatalf("deck size = %d, want 2", len(deck))
	}
	if deck[0].ID != ids[2] || deck[1].ID != ids[1] {
		t.Errorf("deck order = [%s %s], want [%s %s]", deck[0].ID, deck[1].ID, ids[2], ids[1])
	}
}

func TestUpdateCardPositionsRollsBackOnMissingCard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c := &game.Card{
		WorldID: "w1", OwnerID: "u1", Name: "a",
		Health: 10, Damage: 5, Type: game.TypeAir, Role: game.NormalRole(),
	}
	if err := db.CreateCard(ctx, c); err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	err := db.UpdateCardPositions(ctx, []game.PositionUpdate{
		{CardID: c.ID, Position: 1},
		{CardID: "missing", Position: 2},
	})
	if err == nil {
		t.Fatal("batch with a missing card should fail")
	}

	got, err := db.CardByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("CardByID: %v", err)
	}
	if got.Position != 0 {
		t.Errorf("position = %d after rollback, want 0", got.Position)
	}
}

func TestCreateDungeonTransactional(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c := &game.Card{
		WorldID: "w1", OwnerID: "u1", Name: "a",
		Health: 10, Damage: 5, Type: game.TypeEarth, Role: game.NormalRole(),
	}
	if err := db.CreateCard(ctx, c); err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	d := &game.Dungeon{WorldID: "w1", Name: "Crypt", CardIDs: []string{c.ID}}
	created, err := db.CreateDungeon(ctx, d, []game.PositionUpdate{{CardID: c.ID, Position: 1}})
	if err != nil {
		t.Fatalf("CreateDungeon: %v", err)
	}
	if created.ID == "" {
		t.Fatal("CreateDungeon should assign an id")
	}

	got, err := db.DungeonByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("DungeonByID: %v", err)
	}
	if got == nil || got.Name != "Crypt" || len(got.CardIDs) != 1 {
		t.Fatalf("dungeon round trip failed: %+v", got)
	}

	card, err := db.CardByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("CardByID: %v", err)
	}
	if card.Position != 1 {
		t.Errorf("card position = %d, want 1", card.Position)
	}

	// A bad position batch must roll back the dungeon insert too.
	bad := &game.Dungeon{WorldID: "w1", Name: "Broken", CardIDs: []string{"missing"}}
	if _, err := db.CreateDungeon(ctx, bad, []game.PositionUpdate{{CardID: "missing", Position: 1}}); err == nil {
		t.Fatal("CreateDungeon with a missing card should fail")
	}
	gone, err := db.DungeonByID(ctx, bad.ID)
	if err != nil {
		t.Fatalf("DungeonByID: %v", err)
	}
	if gone != nil {
		t.Error("failed CreateDungeon must not leave a dangling dungeon row")
	}
}

func TestMatchHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		m := &Match{
			PlayerID:  "u1",
			DungeonID: "d1",
			CardIDs:   []string{"c1", "c2"},
			PlayerWon: i%2 == 0,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.SaveMatch(ctx, m); err != nil {
			t.Fatalf("SaveMatch: %v", err)
		}
	}
	if err := db.SaveMatch(ctx, &Match{PlayerID: "u2", DungeonID: "d1", CardIDs: []string{"c9"}, PlayerWon: false}); err != nil {
		t.Fatalf("SaveMatch other player: %v", err)
	}

	matches, err := db.MatchesByPlayer(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("MatchesByPlayer: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2 (limit applied)", len(matches))
	}
	if !matches[0].CreatedAt.After(matches[1].CreatedAt) {
		t.Error("matches should come back newest first")
	}
	if len(matches[0].CardIDs) != 2 {
		t.Errorf("card ids round trip failed: %v", matches[0].CardIDs)
	}
}
