package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/journal"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/marketdata"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/protocol"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/registry"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/repository"
	"github.com/shubham-shewale/watchlist-sync/pkg/models"
)

type ClientInterface interface {
	ID() string
	SendJSON(v interface{})
	SendBytes(b []byte)
	Close()
}

// Fetcher abstracts the market-data client
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (*models.Series, error)
}

// Hub coordinates the shared watchlist across all connected clients: it
// owns the connection set, runs the bootstrap/add/remove flows, and routes
// committed state transitions through the event bus so every server
// instance sharing the store broadcasts the same changes.
type Hub struct {
	registry *registry.Registry
	fetcher  Fetcher
	bus      repository.EventBus
	journal  journal.Recorder
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[ClientInterface]bool
}

func NewHub(reg *registry.Registry, fetcher Fetcher, bus repository.EventBus, jr journal.Recorder, logger *zap.Logger) *Hub {
	h := &Hub{
		registry: reg,
		fetcher:  fetcher,
		bus:      bus,
		journal:  jr,
		logger:   logger,
		clients:  make(map[ClientInterface]bool),
	}

	go h.bus.Run(context.Background(), h.Broadcast)

	return h
}

// Register adds a connection to the broadcast set. Pure connection
// lifecycle; shared state is untouched.
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// Unregister drops a connection. In-flight work for that connection still
// completes, and any broadcast it produces still reaches the remaining
// connections.
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client] {
		delete(h.clients, client)
		client.Close()
	}
}

func (h *Hub) HandleCommand(client ClientInterface, req protocol.WSRequest) {
	switch req.Action {
	case protocol.ActionAdd:
		h.handleAdd(client, req)
	case protocol.ActionRemove:
		h.handleRemove(client, req)
	default:
		h.sendError(client, req.ID, "", "Unknown action: "+req.Action)
	}
}

// Bootstrap sends a new connection the current watchlist with a fresh
// series per symbol. A symbol whose fetch fails is dropped from the
// payload: one bad or rate-limited symbol must not block the rest.
func (h *Hub) Bootstrap(client ClientInterface) {
	ctx := context.Background()

	symbols, err := h.registry.ListAll(ctx)
	if err != nil {
		h.logger.Error("Watchlist load failed", zap.Error(err))
		h.sendError(client, "", "", "Failed to load watchlist")
		return
	}

	results := make([]*models.Series, len(symbols))
	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			series, err := h.fetcher.Fetch(ctx, symbol)
			if err != nil {
				h.logger.Warn("Dropping symbol from bootstrap",
					zap.String("symbol", symbol), zap.Error(err))
				return
			}
			results[i] = series
		}(i, symbol)
	}
	wg.Wait()

	payload := make([]models.Series, 0, len(results))
	for _, series := range results {
		if series != nil {
			payload = append(payload, *series)
		}
	}

	client.SendJSON(protocol.Snapshot{Type: protocol.TypeSnapshot, Series: payload})
}

func (h *Hub) handleAdd(client ClientInterface, req protocol.WSRequest) {
	symbol := models.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		h.sendError(client, req.ID, "", "Symbol cannot be empty")
		return
	}

	// No cancellation: once issued, fetches and store calls run to
	// completion even if the requester disconnects mid-flight.
	ctx := context.Background()

	exists, err := h.registry.Contains(ctx, symbol)
	if err != nil {
		h.logger.Error("Watchlist lookup failed", zap.String("symbol", symbol), zap.Error(err))
		h.sendError(client, req.ID, symbol, "Failed to add symbol")
		return
	}

	if exists {
		// No new shared state; answer the requester only.
		series, err := h.fetcher.Fetch(ctx, symbol)
		if err != nil {
			h.sendFetchFailure(client, req.ID, symbol, err)
			return
		}
		client.SendJSON(protocol.WSResponse{
			Type:    protocol.TypeWatching,
			ID:      req.ID,
			Symbol:  symbol,
			Message: "Already on the watchlist",
			Series:  series,
		})
		return
	}

	// Validate before commit: a symbol that fails to fetch is never
	// persisted.
	series, err := h.fetcher.Fetch(ctx, symbol)
	if err != nil {
		h.sendFetchFailure(client, req.ID, symbol, err)
		return
	}

	result, err := h.registry.Register(ctx, symbol)
	if err != nil {
		h.logger.Error("Watchlist insert failed", zap.String("symbol", symbol), zap.Error(err))
		h.sendError(client, req.ID, symbol, "Failed to add symbol")
		return
	}

	// The insert is durable before anyone hears about it. Losing the
	// race to a concurrent add still broadcasts the fetched series so
	// the late racer's peers converge on the same added event.
	h.publish(ctx, protocol.WSResponse{Type: protocol.TypeAdded, Symbol: symbol, Series: series})

	if result == registry.Inserted {
		h.journal.Record(journal.Event{Action: "added", Symbol: symbol, Timestamp: time.Now().UnixMicro()})
	}
}

func (h *Hub) handleRemove(client ClientInterface, req protocol.WSRequest) {
	symbol := models.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		h.sendError(client, req.ID, "", "Symbol cannot be empty")
		return
	}

	ctx := context.Background()

	result, err := h.registry.Unregister(ctx, symbol)
	if err != nil {
		h.logger.Error("Watchlist delete failed", zap.String("symbol", symbol), zap.Error(err))
		h.sendError(client, req.ID, symbol, "Failed to remove symbol")
		return
	}

	if result == registry.NotFound {
		// Desired end state already holds; nothing to announce.
		h.logger.Debug("Remove of absent symbol", zap.String("symbol", symbol))
		return
	}

	h.publish(ctx, protocol.WSResponse{Type: protocol.TypeRemoved, Symbol: symbol})
	h.journal.Record(journal.Event{Action: "removed", Symbol: symbol, Timestamp: time.Now().UnixMicro()})
}

// Broadcast fans a raw event payload out to every connected client.
// Invoked by the event bus loop; also the fallback when publishing fails.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.SendBytes(payload)
	}
}

// publish routes a committed transition through the event bus. If the bus
// is unreachable the event still reaches this instance's own clients.
func (h *Hub) publish(ctx context.Context, resp protocol.WSResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("Event marshal failed", zap.String("type", resp.Type), zap.Error(err))
		return
	}
	if err := h.bus.Publish(ctx, payload); err != nil {
		h.logger.Error("Event publish failed, broadcasting locally", zap.Error(err))
		h.Broadcast(payload)
	}
}

func (h *Hub) sendFetchFailure(c ClientInterface, id, symbol string, err error) {
	switch marketdata.KindOf(err) {
	case marketdata.KindRateLimit:
		c.SendJSON(protocol.WSResponse{
			Type: protocol.TypeRateLimited, ID: id, Symbol: symbol,
			Message: "Provider rate limit reached, try again shortly",
		})
	case marketdata.KindInvalidSymbol, marketdata.KindNoData:
		c.SendJSON(protocol.WSResponse{
			Type: protocol.TypeNotFound, ID: id, Symbol: symbol,
			Message: "Symbol not found",
		})
	default:
		h.logger.Warn("Fetch failed", zap.String("symbol", symbol), zap.Error(err))
		c.SendJSON(protocol.WSResponse{
			Type: protocol.TypeError, ID: id, Symbol: symbol,
			Message: "Failed to fetch data for " + symbol,
		})
	}
}

func (h *Hub) sendError(c ClientInterface, id, symbol, msg string) {
	c.SendJSON(protocol.WSResponse{Type: protocol.TypeError, ID: id, Symbol: symbol, Message: msg})
}
