package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"routine-planner/internal/model"
	"routine-planner/internal/service"
)

// Authenticator resolves the calling user from request headers.
type Authenticator interface {
	FromRequest(r *http.Request) (*model.User, error)
}

// Handler serves the Mini App API.
type Handler struct {
	auth      Authenticator
	lifecycle *service.Lifecycle
	instances *service.InstanceService
	tasks     *service.TaskService
	settings  *service.SettingsService
	stats     *service.StatsService
	log       zerolog.Logger
}

type Services struct {
	Lifecycle *service.Lifecycle
	Instances *service.InstanceService
	Tasks     *service.TaskService
	Settings  *service.SettingsService
	Stats     *service.StatsService
}

func NewHandler(auth Authenticator, svc Services, log zerolog.Logger) *Handler {
	return &Handler{
		auth:      auth,
		lifecycle: svc.Lifecycle,
		instances: svc.Instances,
		tasks:     svc.Tasks,
		settings:  svc.Settings,
		stats:     svc.Stats,
		log:       log.With().Str("component", "api").Logger(),
	}
}

type ctxKey struct{}

// Authenticate resolves the user once per request and stores it in the context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.auth.FromRequest(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

func currentUser(r *http.Request) *model.User {
	user, _ := r.Context().Value(ctxKey{}).(*model.User)
	return user
}

// =============================================================================
// AUTH / SETTINGS / DASHBOARD
// =============================================================================

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserDTO(currentUser(r)))
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context(), currentUser(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsDTO
	if !h.decode(w, r, &req) {
		return
	}
	settings, err := h.settings.Update(r.Context(), currentUser(r).ID, service.SettingsInput{
		Currency:             req.Currency,
		PenaltyDailyDefault:  req.PenaltyDailyDefault,
		PenaltyWeeklyDefault: req.PenaltyWeeklyDefault,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.lifecycle.Current(r.Context(), currentUser(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var resp DashboardDTO
	if dash.Day != nil {
		resp.OpenDay = &OpenPeriodDTO{ID: dash.Day.ID, StartedAt: dash.Day.StartedAt}
	}
	if dash.Week != nil {
		resp.OpenWeek = &OpenPeriodDTO{ID: dash.Week.ID, StartedAt: dash.Week.StartedAt}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// TASKS
// =============================================================================

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context(), currentUser(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp := make([]TaskDTO, 0, len(tasks))
	for i := range tasks {
		resp = append(resp, toTaskDTO(&tasks[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if !h.decode(w, r, &req) {
		return
	}
	task, err := h.tasks.Create(r.Context(), currentUser(r).ID, toTaskInput(req))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req TaskRequest
	if !h.decode(w, r, &req) {
		return
	}
	task, err := h.tasks.Update(r.Context(), currentUser(r).ID, id, toTaskInput(req))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.tasks.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Task deleted"})
}

func (h *Handler) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.tasks.Reorder(r.Context(), currentUser(r).ID, req.OrderedIDs); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Tasks reordered"})
}

// =============================================================================
// SESSIONS
// =============================================================================

func (h *Handler) StartDay(w http.ResponseWriter, r *http.Request) {
	day, err := h.lifecycle.OpenDay(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionDTO{ID: day.ID, StartedAt: day.StartedAt, ClosedAt: day.ClosedAt})
}

func (h *Handler) CloseDay(w http.ResponseWriter, r *http.Request) {
	result, err := h.lifecycle.CloseDay(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCloseDTO(result))
}

func (h *Handler) StartWeek(w http.ResponseWriter, r *http.Request) {
	week, _, err := h.lifecycle.OpenWeek(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionDTO{ID: week.ID, StartedAt: week.StartedAt, ClosedAt: week.ClosedAt})
}

func (h *Handler) CloseWeek(w http.ResponseWriter, r *http.Request) {
	result, err := h.lifecycle.CloseWeek(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCloseDTO(result))
}

// =============================================================================
// INSTANCES
// =============================================================================

func (h *Handler) ListInstances(w http.ResponseWriter, r *http.Request) {
	insts, err := h.instances.List(r.Context(), currentUser(r).ID, r.URL.Query().Get("scope"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceDTOs(insts))
}

func (h *Handler) SetInstanceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req StatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	inst, err := h.instances.SetStatus(r.Context(), currentUser(r).ID, id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceDTO(inst))
}

func (h *Handler) AddBacklog(w http.ResponseWriter, r *http.Request) {
	var req BacklogRequest
	if !h.decode(w, r, &req) {
		return
	}
	inst, err := h.instances.EnrollBacklog(r.Context(), currentUser(r).ID, req.TaskID, req.Scope)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceDTO(inst))
}

// =============================================================================
// STATS
// =============================================================================

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	period := service.StatsPeriod(r.URL.Query().Get("period"))
	stats, err := h.stats.PenaltySummary(r.Context(), currentUser(r).ID, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsDTO{
		Period:       string(stats.Period),
		FailedCount:  stats.FailedCount,
		TotalPenalty: stats.TotalPenalty,
	})
}

func (h *Handler) StatsDetails(w http.ResponseWriter, r *http.Request) {
	period := service.StatsPeriod(r.URL.Query().Get("period"))
	details, err := h.stats.Details(r.Context(), currentUser(r).ID, period)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDetailsDTO(details))
}

func (h *Handler) ClearStats(w http.ResponseWriter, r *http.Request) {
	if err := h.stats.Clear(r.Context(), currentUser(r).ID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Statistics cleared"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid id", err)
		return 0, false
	}
	return uint(id), true
}

// fail maps service errors to HTTP statuses. Unknown errors are logged and
// reported without details.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input", err)
	default:
		h.log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
