package api

// Request payloads. Every endpoint answers with the response envelope defined
// in server.go.

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"` // username or email
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

type createWorldRequest struct {
	Name string `json:"name"`
}

type joinWorldRequest struct {
	WorldID string `json:"world_id"`
}

type createCardRequest struct {
	WorldID string `json:"world_id"`
	OwnerID string `json:"owner_id,omitempty"` // defaults to the caller
	Name    string `json:"name"`
	Type    string `json:"type"`
	Health  int    `json:"health"`
	Damage  int    `json:"damage"`
}

type createLeaderRequest struct {
	WorldID    string `json:"world_id"`
	BaseCardID string `json:"base_card_id"`
	Boost      string `json:"boost"` // "damage" or "health"
}

type createDungeonRequest struct {
	WorldID string   `json:"world_id"`
	Name    string   `json:"name"`
	CardIDs []string `json:"list_of_cards_ids"`
}

type setDeckRequest struct {
	CardIDs []string `json:"card_ids"`
}

type battleRequest struct {
	DungeonID string `json:"dungeon_id"`
}
