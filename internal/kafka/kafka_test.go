package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/lucid-arena/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEventProducerEnvelope(t *testing.T) {
	mock := mocks.NewAsyncProducer(t, nil)
	mock.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "lobby-1" {
			return errors.New("message not keyed by lobby")
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var event Event
		if err := json.Unmarshal(value, &event); err != nil {
			return err
		}
		if event.Type != EventMiniGameOutcome || event.LobbyID != "lobby-1" || event.ID == "" {
			return errors.New("unexpected envelope")
		}
		var outcome domain.MiniGameOutcome
		if err := json.Unmarshal(event.Data, &outcome); err != nil {
			return err
		}
		if outcome.WinnerNickname != "B" || outcome.WinnerScore != 7 {
			return errors.New("unexpected payload")
		}
		return nil
	})

	producer := NewEventProducerFromAsync(mock, "arena-game-events", discardLogger())
	producer.PublishOutcome(context.Background(), "lobby-1", domain.MiniGameOutcome{
		MiniGameName:   domain.MiniGameStar,
		WinnerNickname: "B",
		WinnerScore:    7,
		Awarded:        true,
	})

	require.NoError(t, producer.Close())
}

func TestEventProducerSurvivesBrokerErrors(t *testing.T) {
	mock := mocks.NewAsyncProducer(t, nil)
	mock.ExpectInputAndFail(sarama.ErrOutOfBrokers)
	mock.ExpectInputAndSucceed()

	producer := NewEventProducerFromAsync(mock, "arena-game-events", discardLogger())
	state := domain.NewGameState("lobby-1", []string{"A"}, []domain.TileType{domain.TileBonus})
	producer.PublishState(context.Background(), "lobby-1", state)
	producer.PublishStart(context.Background(), "lobby-1", state)

	require.NoError(t, producer.Close())
}

type submitCall struct {
	lobbyID, game, player string
	score                 int
}

type fakeResultHandler struct {
	mu    sync.Mutex
	calls []submitCall
	err   error
}

func (f *fakeResultHandler) SubmitMiniGameResult(_ context.Context, lobbyID, miniGameName, player string, score int) (*domain.MiniGameOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, submitCall{lobbyID, miniGameName, player, score})
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func TestConsumerHandleMessage(t *testing.T) {
	handler := &fakeResultHandler{}
	c := &Consumer{handler: handler, logger: discardLogger()}

	err := c.handleMessage(context.Background(), []byte(`{"lobby_id":"l1","miniGameName":"ClickerGame","player":"A","score":80}`))
	require.NoError(t, err)
	require.Len(t, handler.calls, 1)
	assert.Equal(t, submitCall{"l1", "ClickerGame", "A", 80}, handler.calls[0])
}

func TestConsumerRejectsBadMessages(t *testing.T) {
	handler := &fakeResultHandler{}
	c := &Consumer{handler: handler, logger: discardLogger()}

	err := c.handleMessage(context.Background(), []byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	err = c.handleMessage(context.Background(), []byte(`{"lobby_id":"l1","score":3}`))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	assert.Empty(t, handler.calls)
}

func TestConsumerPropagatesEngineErrors(t *testing.T) {
	handler := &fakeResultHandler{err: domain.ErrGameOver}
	c := &Consumer{handler: handler, logger: discardLogger()}

	err := c.handleMessage(context.Background(), []byte(`{"lobby_id":"l1","miniGameName":"mini1","player":"A","score":1}`))
	assert.ErrorIs(t, err, domain.ErrGameOver)
}
