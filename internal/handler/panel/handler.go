package panel

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	leaveModel "github.com/talan-labs/avatar/backend/internal/model/leave"
	"github.com/talan-labs/avatar/backend/internal/service/bridge"
	leaveService "github.com/talan-labs/avatar/backend/internal/service/leave"
	sessionService "github.com/talan-labs/avatar/backend/internal/service/session"
	"github.com/talan-labs/avatar/backend/pkg/utils"
)

// Handler serves the auxiliary panels (balance, calendar, team) and the
// bridge endpoints that feed panel events into the conversation.
type Handler struct {
	leaveSvc *leaveService.Service
	bridge   *bridge.Bridge
}

// New creates the panel handler.
func New(leaveSvc *leaveService.Service, b *bridge.Bridge) *Handler {
	return &Handler{leaveSvc: leaveSvc, bridge: b}
}

// RegisterRoutes mounts the panel routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/panel/balance/{userID}", h.handleBalance)
	r.Get("/panel/team", h.handleTeam)
	r.Get("/panel/absences/{userID}", h.handleAbsences)
	r.Post("/panel/absences", h.handleFillAbsence)
	r.Post("/panel/date", h.handleDateSelected)
	r.Post("/panel/quick-action", h.handleQuickAction)
	r.Post("/panel/suggest", h.handleSuggest)
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	balance := h.leaveSvc.Balance(r.Context(), userID)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"balance":      balance,
		"remaining":    balance.Remaining(),
		"rttRemaining": balance.RTTRemaining(),
	})
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"team": h.leaveSvc.Team(r.Context())})
}

func (h *Handler) handleAbsences(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	rng, err := parseDateRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	absences, err := h.leaveSvc.Absences(r.Context(), userID, rng)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"absences": absences,
		"count":    len(absences),
	})
}

func (h *Handler) handleFillAbsence(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID int    `json:"userId"`
		Date   string `json:"date"`
		Reason string `json:"reason"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	day, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if payload.Reason == "" {
		utils.RespondError(w, http.StatusBadRequest, "reason is required")
		return
	}

	absence, err := h.leaveSvc.FillAbsence(r.Context(), payload.UserID, day, payload.Reason)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, absence)
}

func (h *Handler) handleDateSelected(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Date      string `json:"date"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	day, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	messages, err := h.bridge.DateSelected(r.Context(), payload.SessionID, day)
	if err != nil {
		respondBridgeError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) handleQuickAction(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Template  string `json:"template"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	messages, err := h.bridge.QuickAction(r.Context(), payload.SessionID, payload.Template)
	if err != nil {
		respondBridgeError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	messages, err := h.bridge.SuggestBestDays(r.Context(), payload.SessionID)
	if err != nil {
		respondBridgeError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func respondBridgeError(w http.ResponseWriter, err error) {
	switch err {
	case sessionService.ErrSessionNotFound:
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case sessionService.ErrSessionBusy:
		utils.RespondError(w, http.StatusConflict, err.Error())
	case sessionService.ErrEmptyUtterance:
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseDateRange(start, end string) (leaveModel.DateRange, error) {
	now := time.Now().UTC()
	rng := leaveModel.DateRange{
		Start: now.AddDate(0, -1, 0),
		End:   now.AddDate(0, 1, 0),
	}

	if start != "" {
		day, err := time.Parse("2006-01-02", start)
		if err != nil {
			return leaveModel.DateRange{}, err
		}
		rng.Start = day
	}
	if end != "" {
		day, err := time.Parse("2006-01-02", end)
		if err != nil {
			return leaveModel.DateRange{}, err
		}
		rng.End = day
	}
	return rng, nil
}
