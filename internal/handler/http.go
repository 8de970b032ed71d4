package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/lucid-arena/internal/auth"
	"github.com/lucid-arena/internal/domain"
	"github.com/lucid-arena/internal/game"
	"github.com/lucid-arena/internal/websocket"
)

// Players resolves authenticated subjects to their in-game profile
type Players interface {
	Nickname(ctx context.Context, subject string) (string, error)
	Profile(ctx context.Context, subject string) (*domain.PlayerProfile, error)
	SaveNickname(ctx context.Context, subject, email, nickname string) (*domain.PlayerProfile, error)
}

// Authenticator identifies the caller of a request
type Authenticator interface {
	Authenticate(r *http.Request) (auth.Identity, error)
}

// ReadinessCheck is a dependency probed by /ready
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler provides HTTP handlers for the lobby and game API
type Handler struct {
	engine  *game.Engine
	players Players
	authn   Authenticator
	hub     *websocket.Hub
	checks  []ReadinessCheck
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	engine *game.Engine,
	players Players,
	authn Authenticator,
	hub *websocket.Hub,
	logger *slog.Logger,
	checks ...ReadinessCheck,
) *Handler {
	return &Handler{
		engine:  engine,
		players: players,
		authn:   authn,
		hub:     hub,
		checks:  checks,
		logger:  logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateLobbyRequest is the body of POST /api/lobby. RoomID is generated
// when empty.
type CreateLobbyRequest struct {
	RoomID string `json:"roomId"`
}

// MiniGameResultRequest is a player's final score for a mini-game
type MiniGameResultRequest struct {
	MiniGameName string `json:"miniGameName"`
	Score        int    `json:"score"`
}

// NicknameRequest registers or renames the caller
type NicknameRequest struct {
	Nickname string `json:"nickname"`
}

// WinnerResponse reports whether the lobby's game is decided
type WinnerResponse struct {
	Winner  string `json:"winner,omitempty"`
	Decided bool   `json:"decided"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.With(h.authenticate).Get("/ws", h.HandleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Route("/user", func(r chi.Router) {
			r.Post("/nickname", h.SaveNickname)
			r.Get("/me", h.Me)
		})

		r.Route("/lobby", func(r chi.Router) {
			r.Post("/", h.CreateLobby)

			r.Route("/{roomID}", func(r chi.Router) {
				r.Post("/join", h.JoinLobby)
				r.Get("/players", h.GetLobbyPlayers)
				r.Post("/start", h.StartGame)
			})
		})

		r.Route("/game/{lobbyID}", func(r chi.Router) {
			r.Get("/", h.GetGameState)
			r.Get("/winner", h.GetWinner)
			r.Post("/ping", h.PingGame)
			r.Post("/roll", h.Roll)
			r.Post("/minigame/result", h.SubmitMiniGameResult)
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authenticate rejects requests without a valid bearer token
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.authn.Authenticate(r)
		if err != nil {
			h.logger.Debug("authentication failed", "path", r.URL.Path, "error", err)
			h.writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeDomainError maps a domain error to its HTTP status. Anything
// unrecognised is logged and reported as an internal error.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case domain.IsConflictError(err):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnknownMiniGame):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrUnauthorized):
		h.writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			"op", op,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// nickname resolves the caller to the nickname used as their game identity.
// On failure the response has already been written.
func (h *Handler) nickname(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
		return "", false
	}
	nickname, err := h.players.Nickname(r.Context(), id.Subject)
	if err != nil {
		h.writeDomainError(w, r, "resolve nickname", err)
		return "", false
	}
	return nickname, true
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	nickname, ok := h.nickname(w, r)
	if !ok {
		return
	}
	websocket.ServeWs(h.hub, nickname, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck probes every registered dependency
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			h.logger.Warn("readiness check failed", "check", c.Name, "error", err)
			h.writeJSON(w, http.StatusServiceUnavailable, APIResponse{
				Success: false,
				Error:   c.Name + " unavailable",
			})
			return
		}
	}
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// SaveNickname registers or renames the caller
func (h *Handler) SaveNickname(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req NicknameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	profile, err := h.players.SaveNickname(r.Context(), id.Subject, id.Email, req.Nickname)
	if err != nil {
		h.writeDomainError(w, r, "save nickname", err)
		return
	}
	h.writeSuccess(w, profile)
}

// Me returns the caller's profile
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	profile, err := h.players.Profile(r.Context(), id.Subject)
	if err != nil {
		h.writeDomainError(w, r, "get profile", err)
		return
	}
	h.writeSuccess(w, profile)
}

// CreateLobby creates a room and joins the caller to it
func (h *Handler) CreateLobby(w http.ResponseWriter, r *http.Request) {
	nickname, ok := h.nickname(w, r)
	if !ok {
		return
	}

	// An empty body asks for a generated room id
	var req CreateLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	roomID := strings.TrimSpace(req.RoomID)
	if roomID == "" {
		roomID = uuid.NewString()
	}

	h.engine.CreateRoom(r.Context(), roomID)
	if err := h.engine.JoinRoom(r.Context(), roomID, nickname); err != nil {
		h.writeDomainError(w, r, "create lobby", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    h.engine.Players(roomID),
	})
}

// JoinLobby adds the caller to an existing room
func (h *Handler) JoinLobby(w http.ResponseWriter, r *http.Request) {
	nickname, ok := h.nickname(w, r)
	if !ok {
		return
	}
	roomID := chi.URLParam(r, "roomID")

	if err := h.engine.JoinRoom(r.Context(), roomID, nickname); err != nil {
		h.writeDomainError(w, r, "join lobby", err)
		return
	}
	h.writeSuccess(w, h.engine.Players(roomID))
}

// GetLobbyPlayers lists a room's members in join order
func (h *Handler) GetLobbyPlayers(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if !h.engine.RoomExists(roomID) {
		h.writeError(w, http.StatusNotFound, domain.ErrRoomNotFound)
		return
	}
	h.writeSuccess(w, h.engine.Players(roomID))
}

// StartGame creates the lobby's game and announces it
func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if !h.engine.RoomExists(roomID) {
		h.writeError(w, http.StatusNotFound, domain.ErrRoomNotFound)
		return
	}

	state, err := h.engine.Start(r.Context(), roomID)
	if err != nil {
		h.writeDomainError(w, r, "start game", err)
		return
	}
	h.writeSuccess(w, state)
}

// GetGameState returns the lobby's current game state
func (h *Handler) GetGameState(w http.ResponseWriter, r *http.Request) {
	state, err := h.engine.State(chi.URLParam(r, "lobbyID"))
	if err != nil {
		h.writeDomainError(w, r, "get game state", err)
		return
	}
	h.writeSuccess(w, state)
}

// GetWinner reports the lobby's winner, if any
func (h *Handler) GetWinner(w http.ResponseWriter, r *http.Request) {
	winner, decided, err := h.engine.CheckWinner(chi.URLParam(r, "lobbyID"))
	if err != nil {
		h.writeDomainError(w, r, "check winner", err)
		return
	}
	h.writeSuccess(w, WinnerResponse{Winner: winner, Decided: decided})
}

// PingGame rebroadcasts the current state to the lobby
func (h *Handler) PingGame(w http.ResponseWriter, r *http.Request) {
	state, err := h.engine.Ping(r.Context(), chi.URLParam(r, "lobbyID"))
	if err != nil {
		h.writeDomainError(w, r, "ping game", err)
		return
	}
	h.writeSuccess(w, state)
}

// Roll plays the caller's turn
func (h *Handler) Roll(w http.ResponseWriter, r *http.Request) {
	nickname, ok := h.nickname(w, r)
	if !ok {
		return
	}

	result, err := h.engine.Roll(r.Context(), chi.URLParam(r, "lobbyID"), nickname)
	if err != nil {
		h.writeDomainError(w, r, "roll", err)
		return
	}
	h.writeSuccess(w, result)
}

// SubmitMiniGameResult records the caller's mini-game score. The response
// carries the outcome once every expected result is in.
func (h *Handler) SubmitMiniGameResult(w http.ResponseWriter, r *http.Request) {
	nickname, ok := h.nickname(w, r)
	if !ok {
		return
	}

	var req MiniGameResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if req.MiniGameName == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	outcome, err := h.engine.SubmitMiniGameResult(r.Context(), chi.URLParam(r, "lobbyID"), req.MiniGameName, nickname, req.Score)
	if err != nil {
		h.writeDomainError(w, r, "submit mini-game result", err)
		return
	}
	if outcome == nil {
		h.writeJSON(w, http.StatusAccepted, APIResponse{
			Success: true,
			Data:    map[string]string{"status": "pending"},
		})
		return
	}
	h.writeSuccess(w, outcome)
}
