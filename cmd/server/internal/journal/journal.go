package journal

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event is one committed watchlist change, emitted for downstream consumers.
type Event struct {
	Action    string `json:"action"` // "added" or "removed"
	Symbol    string `json:"symbol"`
	Timestamp int64  `json:"timestamp"` // unix micro
}

// Recorder accepts committed changes. Recording is best-effort and must
// never stall a request flow.
type Recorder interface {
	Record(ev Event)
	Close() error
}

// KafkaWriter abstracts the output stream
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Compile-time checks
var (
	_ Recorder = (*Journal)(nil)
	_ Recorder = Nop{}
)

// Journal drains change events to Kafka through a single worker. A full
// buffer drops the event with a warning rather than blocking the caller.
type Journal struct {
	logger *zap.Logger
	writer KafkaWriter
	events chan Event
	wg     sync.WaitGroup
}

func New(writer KafkaWriter, logger *zap.Logger) *Journal {
	j := &Journal{
		logger: logger,
		writer: writer,
		events: make(chan Event, 256),
	}
	j.wg.Add(1)
	go j.worker()
	return j
}

// NewWriter builds the production Kafka writer with the batching tuning
// the journal expects.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}
}

func (j *Journal) Record(ev Event) {
	select {
	case j.events <- ev:
	default:
		j.logger.Warn("Journal buffer full, dropping event",
			zap.String("action", ev.Action), zap.String("symbol", ev.Symbol))
	}
}

func (j *Journal) worker() {
	defer j.wg.Done()
	ctx := context.Background()

	for ev := range j.events {
		payload, err := json.Marshal(ev)
		if err != nil {
			j.logger.Error("JSON Marshal Error", zap.Error(err))
			continue
		}

		err = j.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(ev.Symbol), // Key ensures partition ordering per symbol
			Value: payload,
		})
		if err != nil {
			j.logger.Error("Journal write error", zap.Error(err), zap.String("symbol", ev.Symbol))
		}
	}
}

// Close drains buffered events and flushes the writer.
func (j *Journal) Close() error {
	close(j.events)
	j.wg.Wait()
	return j.writer.Close()
}

// Nop is the journal used when no Kafka brokers are configured.
type Nop struct{}

func (Nop) Record(Event) {}
func (Nop) Close() error { return nil }
