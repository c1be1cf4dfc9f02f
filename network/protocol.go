package network

// Client -> server.
const (
	MsgTypeHeartbeat = 1
	MsgTypeAction    = 201
)

// Server -> client.
const (
	MsgTypePhase          = 301
	MsgTypeImage          = 302
	MsgTypeTick           = 303
	MsgTypeSelection      = 304
	MsgTypeResults        = 305
	MsgTypeGameOver       = 306
	MsgTypeSelectionLimit = 307
	MsgTypeError          = 308
	MsgTypeCatalogUpdated = 401
)

// ImageMessage tells the client which image to show for memorization.
type ImageMessage struct {
	Source   string `json:"source"`
	Fallback bool   `json:"fallback,omitempty"`
}

type TickMessage struct {
	Remaining int `json:"remaining"`
}

type SelectionMessage struct {
	Selected []string `json:"selected"`
}

type SelectionLimitMessage struct {
	Limit int `json:"limit"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

// CatalogUpdatedMessage announces an admin change. Clients that care refetch
// the catalog over HTTP; running rounds are unaffected.
type CatalogUpdatedMessage struct {
	GameCategories int `json:"game_categories"`
}
