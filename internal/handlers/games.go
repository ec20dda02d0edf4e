package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cardroomlabs/cardroom/internal/auth"
	"github.com/cardroomlabs/cardroom/internal/engine/blinds"
	"github.com/cardroomlabs/cardroom/internal/engine/command"
	"github.com/cardroomlabs/cardroom/internal/engine/game"
	"github.com/cardroomlabs/cardroom/internal/engine/manager"
	"github.com/cardroomlabs/cardroom/internal/engine/scheduler"
	"github.com/cardroomlabs/cardroom/internal/validation"
)

type GameHandler struct {
	scheduler *scheduler.Scheduler
}

func NewGameHandler(sched *scheduler.Scheduler) *GameHandler {
	return &GameHandler{
		scheduler: sched,
	}
}

func (h *GameHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateGame)
	r.Get("/{gameID}", h.GetGame)
	r.Post("/{gameID}/commands", h.SubmitCommand)

	return r
}

type CreateGameRequest struct {
	Name      string            `json:"name" validate:"required,min=1,max=100"`
	Format    string            `json:"format" validate:"required,oneof=cash tournament"`
	StartTime time.Time         `json:"start_time" validate:"required"`
	Config    GameConfigRequest `json:"config"`
}

// GameConfigRequest carries format configuration on the wire. Durations are
// seconds; zero values take engine defaults.
type GameConfigRequest struct {
	SeatsPerTable      int             `json:"seats_per_table" validate:"omitempty,min=2,max=10"`
	MinPlayers         int             `json:"min_players" validate:"omitempty,min=2"`
	StartingChips      int64           `json:"starting_chips" validate:"omitempty,gt=0"`
	BuyInMin           int64           `json:"buy_in_min" validate:"omitempty,gt=0"`
	BuyInMax           int64           `json:"buy_in_max" validate:"omitempty,gt=0"`
	RebuyChips         int64           `json:"rebuy_chips" validate:"omitempty,gt=0"`
	AddOnChips         int64           `json:"add_on_chips" validate:"omitempty,gt=0"`
	Blinds             blinds.Schedule `json:"blinds"`
	LevelDurationSec   int             `json:"level_duration_seconds" validate:"omitempty,gt=0"`
	ActionTimeoutSec   int             `json:"action_timeout_seconds" validate:"omitempty,gt=0"`
	ReviewPeriodSec    int             `json:"review_period_seconds" validate:"omitempty,gt=0"`
	SeatingLeadTimeSec int             `json:"seating_lead_time_seconds" validate:"omitempty,gt=0"`
}

func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := validation.Validate(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Config.Blinds.Levels) == 0 {
		writeErrorResponse(w, http.StatusBadRequest, "at least one blind level is required")
		return
	}

	cfg := game.FormatConfig{
		SeatsPerTable:   req.Config.SeatsPerTable,
		MinPlayers:      req.Config.MinPlayers,
		StartingChips:   req.Config.StartingChips,
		BuyInMin:        req.Config.BuyInMin,
		BuyInMax:        req.Config.BuyInMax,
		RebuyChips:      req.Config.RebuyChips,
		AddOnChips:      req.Config.AddOnChips,
		Blinds:          req.Config.Blinds,
		LevelDuration:   time.Duration(req.Config.LevelDurationSec) * time.Second,
		ActionTimeout:   time.Duration(req.Config.ActionTimeoutSec) * time.Second,
		ReviewPeriod:    time.Duration(req.Config.ReviewPeriodSec) * time.Second,
		SeatingLeadTime: time.Duration(req.Config.SeatingLeadTimeSec) * time.Second,
	}

	g := game.New(req.Name, game.Format(req.Format), userID, req.StartTime, cfg, time.Now().UTC())

	mgr, err := h.scheduler.Create(r.Context(), g)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to create game")
		return
	}

	writeJSONResponse(w, http.StatusCreated, mgr.View(userID))
}

func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	mgr, ok := h.loadManager(w, r)
	if !ok {
		return
	}

	writeJSONResponse(w, http.StatusOK, mgr.View(userID))
}

func (h *GameHandler) SubmitCommand(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	mgr, ok := h.loadManager(w, r)
	if !ok {
		return
	}

	var env command.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	cmd, err := command.DecodeFor(env, mgr.GameID(), userID)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := validation.Validate(cmd); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	mgr.Submit(cmd)

	// Accepted, not applied: the outcome arrives as events on the next tick.
	writeJSONResponse(w, http.StatusAccepted, map[string]string{
		"status": "queued",
	})
}

func (h *GameHandler) loadManager(w http.ResponseWriter, r *http.Request) (*manager.Manager, bool) {
	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid game id")
		return nil, false
	}

	m, err := h.scheduler.Manager(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, game.ErrGameNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "Game not found")
			return nil, false
		}
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to load game")
		return nil, false
	}
	return m, true
}
