package testutils

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/journal"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/protocol"
	"github.com/shubham-shewale/watchlist-sync/cmd/server/internal/repository"
	"github.com/shubham-shewale/watchlist-sync/pkg/models"
)

// MockClient simulates a connected websocket client
type MockClient struct {
	IDVal     string
	Messages  []protocol.WSResponse // Stores decoded unicast messages
	Snapshots []protocol.Snapshot   // Stores bootstrap payloads
	RawBytes  []string              // Stores broadcast bytes
	Closed    bool
	Mu        sync.Mutex
}

func NewMockClient(id string) *MockClient {
	return &MockClient{IDVal: id}
}

func (m *MockClient) ID() string { return m.IDVal }

func (m *MockClient) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockClient) SendJSON(v interface{}) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	switch msg := v.(type) {
	case protocol.WSResponse:
		m.Messages = append(m.Messages, msg)
	case protocol.Snapshot:
		m.Snapshots = append(m.Snapshots, msg)
	}
}

func (m *MockClient) SendBytes(b []byte) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.RawBytes = append(m.RawBytes, string(b))
}

func (m *MockClient) LastMsgType() string {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Messages) == 0 {
		return ""
	}
	return m.Messages[len(m.Messages)-1].Type
}

func (m *MockClient) BroadcastCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.RawBytes)
}

// MockStore simulates the durable symbol set with injectable faults
type MockStore struct {
	Symbols   map[string]bool
	FindErr   error
	InsertErr error
	DeleteErr error
	ListErr   error
	Mu        sync.Mutex
}

func NewMockStore(symbols ...string) *MockStore {
	m := &MockStore{Symbols: make(map[string]bool)}
	for _, s := range symbols {
		m.Symbols[s] = true
	}
	return m
}

func (m *MockStore) Find(ctx context.Context, symbol string) (bool, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.FindErr != nil {
		return false, m.FindErr
	}
	return m.Symbols[symbol], nil
}

func (m *MockStore) Insert(ctx context.Context, symbol string) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if m.Symbols[symbol] {
		return repository.ErrDuplicateKey
	}
	m.Symbols[symbol] = true
	return nil
}

func (m *MockStore) DeleteOne(ctx context.Context, symbol string) (int64, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	if !m.Symbols[symbol] {
		return 0, nil
	}
	delete(m.Symbols, symbol)
	return 1, nil
}

func (m *MockStore) FindAll(ctx context.Context) ([]string, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	symbols := make([]string, 0, len(m.Symbols))
	for s := range m.Symbols {
		symbols = append(symbols, s)
	}
	return symbols, nil
}

func (m *MockStore) Close() error { return nil }

// MockBus delivers published events synchronously to the hub's broadcast
// callback, so tests observe fanout without a real pub/sub round trip.
type MockBus struct {
	PublishErr error
	Published  [][]byte
	onMessage  func(payload []byte)
	ready      chan struct{}
	Mu         sync.Mutex
}

func NewMockBus() *MockBus {
	return &MockBus{ready: make(chan struct{})}
}

func (m *MockBus) Publish(ctx context.Context, payload []byte) error {
	m.Mu.Lock()
	if m.PublishErr != nil {
		m.Mu.Unlock()
		return m.PublishErr
	}
	m.Published = append(m.Published, payload)
	onMessage := m.onMessage
	m.Mu.Unlock()

	if onMessage != nil {
		onMessage(payload)
	}
	return nil
}

func (m *MockBus) Run(ctx context.Context, onMessage func(payload []byte)) {
	m.Mu.Lock()
	m.onMessage = onMessage
	m.Mu.Unlock()
	close(m.ready)
	<-ctx.Done()
}

// WaitReady blocks until the hub's bus loop has registered its callback.
func (m *MockBus) WaitReady() { <-m.ready }

func (m *MockBus) Close() error { return nil }

// MockFetcher simulates the market-data client
type MockFetcher struct {
	Series map[string]*models.Series
	Errs   map[string]error
	Calls  map[string]int
	Mu     sync.Mutex
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Series: make(map[string]*models.Series),
		Errs:   make(map[string]error),
		Calls:  make(map[string]int),
	}
}

func (m *MockFetcher) Fetch(ctx context.Context, symbol string) (*models.Series, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Calls[symbol]++
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	if s, ok := m.Series[symbol]; ok {
		return s, nil
	}
	return &models.Series{Symbol: symbol, Data: []models.DailyBar{
		{Date: "2024-01-02", Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000},
	}}, nil
}

// MockRecorder captures journal events synchronously
type MockRecorder struct {
	Events []journal.Event
	Mu     sync.Mutex
}

func (m *MockRecorder) Record(ev journal.Event) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Events = append(m.Events, ev)
}

func (m *MockRecorder) Close() error { return nil }

// MockKafkaWriter captures journal messages
type MockKafkaWriter struct {
	Messages []kafka.Message
	Mu       sync.Mutex
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockKafkaWriter) Close() error { return nil }
