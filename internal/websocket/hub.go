package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/lucid-arena/internal/domain"
)

// Message types
const (
	MessageTypeLobbyPlayers        = "lobby_players"
	MessageTypeGameStart           = "game_start"
	MessageTypeGameState           = "game_state"
	MessageTypeMiniGameInstruction = "minigame_instruction"
	MessageTypeMiniGameOutcome     = "minigame_outcome"
	MessageTypeRoll                = "roll"
	MessageTypeMiniGameResult      = "minigame_result"
	MessageTypeSubscribe           = "subscribe"
	MessageTypeUnsubscribe         = "unsubscribe"
	MessageTypePing                = "ping"
	MessageTypePong                = "pong"
	MessageTypeError               = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	LobbyID   string      `json:"lobby_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Actions are the game commands a connected player may issue over the socket
type Actions interface {
	Roll(ctx context.Context, lobbyID, identity string) (*domain.RollResult, error)
	SubmitMiniGameResult(ctx context.Context, lobbyID, miniGameName, player string, score int) (*domain.MiniGameOutcome, error)
}

// Hub maintains the set of active clients and broadcasts lobby events
type Hub struct {
	// Registered clients by lobby ID
	clients map[string]map[*Client]bool

	// All connected clients
	allClients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Outbound lobby events
	broadcast chan *Message

	// Subscription requests
	subscribe chan *subscriptionRequest

	// Unsubscription requests
	unsubscribe chan *subscriptionRequest

	// Game commands issued by clients
	actions Actions

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger
	logger *slog.Logger

	// Context for shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

type subscriptionRequest struct {
	client  *Client
	lobbyID string
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[string]map[*Client]bool),
		allClients:  make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		subscribe:   make(chan *subscriptionRequest, 64),
		unsubscribe: make(chan *subscriptionRequest, 64),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetActions wires the game engine in. The engine publishes through the hub,
// so it can only be attached after both exist.
func (h *Hub) SetActions(actions Actions) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions = actions
}

func (h *Hub) gameActions() Actions {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.actions
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.ctx.Done():
			h.logger.Info("WebSocket hub stopping")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.allClients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.id, "nickname", client.nickname)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.allClients[client]; ok {
				delete(h.allClients, client)
				// Remove from all lobby subscriptions
				for lobbyID, clients := range h.clients {
					if _, ok := clients[client]; ok {
						delete(clients, client)
						if len(clients) == 0 {
							delete(h.clients, lobbyID)
						}
					}
				}
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", "client_id", client.id)

		case req := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.allClients[req.client]; ok {
				if _, ok := h.clients[req.lobbyID]; !ok {
					h.clients[req.lobbyID] = make(map[*Client]bool)
				}
				h.clients[req.lobbyID][req.client] = true
			}
			h.mu.Unlock()
			h.logger.Debug("client subscribed", "client_id", req.client.id, "lobby_id", req.lobbyID)

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if clients, ok := h.clients[req.lobbyID]; ok {
				delete(clients, req.client)
				if len(clients) == 0 {
					delete(h.clients, req.lobbyID)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unsubscribed", "client_id", req.client.id, "lobby_id", req.lobbyID)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// Stop stops the hub
func (h *Hub) Stop() {
	h.cancel()
}

// broadcastMessage sends a message to every client subscribed to its lobby
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", "error", err)
		return
	}

	for client := range h.clients[message.LobbyID] {
		select {
		case client.send <- data:
		default:
			// Client's buffer is full, skip
			h.logger.Warn("client buffer full, skipping", "client_id", client.id)
		}
	}
}

func (h *Hub) enqueue(msgType, lobbyID string, data interface{}) {
	message := &Message{
		Type:      msgType,
		LobbyID:   lobbyID,
		Data:      data,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("broadcast channel full, dropping message", "type", msgType, "lobby_id", lobbyID)
	}
}

// PublishPlayers announces the lobby's member list
func (h *Hub) PublishPlayers(_ context.Context, lobbyID string, players domain.LobbyPlayers) {
	h.enqueue(MessageTypeLobbyPlayers, lobbyID, players)
}

// PublishStart announces that the lobby's game has begun
func (h *Hub) PublishStart(_ context.Context, lobbyID string, state *domain.GameState) {
	h.enqueue(MessageTypeGameStart, lobbyID, state)
}

// PublishState broadcasts the full game state snapshot
func (h *Hub) PublishState(_ context.Context, lobbyID string, state *domain.GameState) {
	h.enqueue(MessageTypeGameState, lobbyID, state)
}

// PublishInstruction tells the lobby which mini-game to launch
func (h *Hub) PublishInstruction(_ context.Context, lobbyID string, instruction domain.MiniGameInstruction) {
	h.enqueue(MessageTypeMiniGameInstruction, lobbyID, instruction)
}

// PublishOutcome broadcasts a resolved mini-game
func (h *Hub) PublishOutcome(_ context.Context, lobbyID string, outcome domain.MiniGameOutcome) {
	h.enqueue(MessageTypeMiniGameOutcome, lobbyID, outcome)
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe adds a client to a lobby subscription
func (h *Hub) Subscribe(client *Client, lobbyID string) {
	h.subscribe <- &subscriptionRequest{
		client:  client,
		lobbyID: lobbyID,
	}
}

// Unsubscribe removes a client from a lobby subscription
func (h *Hub) Unsubscribe(client *Client, lobbyID string) {
	h.unsubscribe <- &subscriptionRequest{
		client:  client,
		lobbyID: lobbyID,
	}
}

// GetSubscriberCount returns the number of subscribers for a lobby
func (h *Hub) GetSubscriberCount(lobbyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[lobbyID])
}

// GetTotalConnections returns the total number of connected clients
func (h *Hub) GetTotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.allClients)
}
