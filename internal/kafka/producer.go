package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/lucid-arena/internal/config"
	"github.com/lucid-arena/internal/domain"
)

// EventType names a game event on the events topic
type EventType string

const (
	EventLobbyPlayers        EventType = "lobby_players"
	EventGameStart           EventType = "game_start"
	EventGameState           EventType = "game_state"
	EventMiniGameInstruction EventType = "minigame_instruction"
	EventMiniGameOutcome     EventType = "minigame_outcome"
)

// Event is the envelope written to the events topic. Messages are keyed by
// lobby so a lobby's events stay ordered within one partition.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	LobbyID   string          `json:"lobby_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// EventProducer publishes engine events to Kafka for downstream consumers
// (analytics, replays, spectators on other nodes).
type EventProducer struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewEventProducer connects an async producer to the configured brokers
func NewEventProducer(cfg *config.KafkaConfig, logger *slog.Logger) (*EventProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Flush.Frequency = 100 * time.Millisecond
	saramaConfig.Producer.Retry.Max = cfg.RetryAttempts
	saramaConfig.Producer.Retry.Backoff = cfg.RetryDelay
	saramaConfig.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, err
	}

	logger.Info("Kafka event producer ready",
		"brokers", cfg.Brokers,
		"topic", cfg.EventsTopic,
	)
	return NewEventProducerFromAsync(producer, cfg.EventsTopic, logger), nil
}

// NewEventProducerFromAsync wraps an existing producer
func NewEventProducerFromAsync(producer sarama.AsyncProducer, topic string, logger *slog.Logger) *EventProducer {
	p := &EventProducer{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}

	// Handle producer errors
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for err := range producer.Errors() {
			p.logger.Error("failed to publish game event",
				"error", err.Err,
				"topic", err.Msg.Topic,
			)
		}
	}()

	return p
}

// Close flushes buffered events and stops the producer
func (p *EventProducer) Close() error {
	err := p.producer.Close()
	p.wg.Wait()
	return err
}

func (p *EventProducer) PublishPlayers(ctx context.Context, lobbyID string, players domain.LobbyPlayers) {
	p.send(ctx, EventLobbyPlayers, lobbyID, players)
}

func (p *EventProducer) PublishStart(ctx context.Context, lobbyID string, state *domain.GameState) {
	p.send(ctx, EventGameStart, lobbyID, state)
}

func (p *EventProducer) PublishState(ctx context.Context, lobbyID string, state *domain.GameState) {
	p.send(ctx, EventGameState, lobbyID, state)
}

func (p *EventProducer) PublishInstruction(ctx context.Context, lobbyID string, instruction domain.MiniGameInstruction) {
	p.send(ctx, EventMiniGameInstruction, lobbyID, instruction)
}

func (p *EventProducer) PublishOutcome(ctx context.Context, lobbyID string, outcome domain.MiniGameOutcome) {
	p.send(ctx, EventMiniGameOutcome, lobbyID, outcome)
}

func (p *EventProducer) send(ctx context.Context, eventType EventType, lobbyID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal game event", "type", eventType, "error", err)
		return
	}

	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		LobbyID:   lobbyID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal game event", "type", eventType, "error", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(lobbyID),
		Value: sarama.ByteEncoder(value),
	}

	select {
	case p.producer.Input() <- msg:
	case <-ctx.Done():
		p.logger.Warn("dropped game event", "type", eventType, "lobby_id", lobbyID, "error", ctx.Err())
	}
}
