package protocol

import "github.com/shubham-shewale/watchlist-sync/pkg/models"

const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// Server-to-client message types.
const (
	TypeSnapshot    = "snapshot"     // bootstrap payload, unicast to a new connection
	TypeAdded       = "added"        // broadcast after a symbol is persisted
	TypeRemoved     = "removed"      // broadcast after a symbol is deleted
	TypeWatching    = "watching"     // unicast: symbol was already on the watchlist
	TypeRateLimited = "rate_limited" // unicast: upstream is throttling us
	TypeNotFound    = "not_found"    // unicast: upstream does not know the symbol
	TypeError       = "error"        // unicast: generic failure notice
)

type WSRequest struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
	ID     string `json:"id,omitempty"`
}

type WSResponse struct {
	Type    string         `json:"type"`
	ID      string         `json:"id,omitempty"` // Matches request ID on unicasts
	Symbol  string         `json:"symbol,omitempty"`
	Message string         `json:"message,omitempty"`
	Series  *models.Series `json:"series,omitempty"`
}

// Snapshot is the bootstrap payload: every currently watched symbol's
// series, ordered by symbol. Symbols whose fetch failed are omitted.
type Snapshot struct {
	Type   string          `json:"type"`
	Series []models.Series `json:"series"`
}
