package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/healthvault/internal/service"
)

// HealthHandler serves an account's records, vitals, goals and dashboard.
// {accountID} in the path names the owner; ownership is enforced by the
// service against the session identity.
type HealthHandler struct {
	health *service.HealthService
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(health *service.HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{health: health, logger: logger}
}

type addRecordRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	RecordType  string `json:"recordType"`
	RecordDate  string `json:"recordDate"`
}

type addVitalRequest struct {
	VitalType string `json:"vitalType"`
	Value     string `json:"value"`
	Unit      string `json:"unit"`
}

type addGoalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TargetValue string `json:"targetValue"`
	TargetDate  string `json:"targetDate"`
}

// CountResponse wraps a bare integer so the body is still a JSON object.
type CountResponse struct {
	Count int `json:"count"`
}

// HandleAddRecord creates a health record.
//
// HTTP: POST /api/accounts/{accountID}/records
// REQUEST BODY: {"title":"Blood panel","recordType":"lab_result","recordDate":"2024-03-01"}
func (h *HealthHandler) HandleAddRecord(w http.ResponseWriter, r *http.Request) {
	var req addRecordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	record, err := h.health.AddHealthRecord(r.Context(), chi.URLParam(r, "accountID"),
		req.Title, req.Description, req.RecordType, req.RecordDate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// HandleListRecords lists records, newest record date first.
//
// HTTP: GET /api/accounts/{accountID}/records?type=&from=&to=&limit=&offset=
// from and to are inclusive YYYY-MM-DD bounds on recordDate.
func (h *HealthHandler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	query := service.RecordQuery{RecordType: q.Get("type"), From: q.Get("from"), To: q.Get("to")}
	records, err := h.health.ListHealthRecords(r.Context(), chi.URLParam(r, "accountID"), query, opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleAddVital records a measurement taken now.
//
// HTTP: POST /api/accounts/{accountID}/vitals
// REQUEST BODY: {"vitalType":"weight","value":"72.5","unit":"kg"}
func (h *HealthHandler) HandleAddVital(w http.ResponseWriter, r *http.Request) {
	var req addVitalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	vital, err := h.health.AddVital(r.Context(), chi.URLParam(r, "accountID"), req.VitalType, req.Value, req.Unit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, vital)
}

// HandleListVitals lists readings, newest first.
//
// HTTP: GET /api/accounts/{accountID}/vitals?type=&limit=&offset=
func (h *HealthHandler) HandleListVitals(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	query := service.VitalQuery{VitalType: r.URL.Query().Get("type")}
	vitals, err := h.health.ListVitals(r.Context(), chi.URLParam(r, "accountID"), query, opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, vitals)
}

// HandleAddGoal creates an active goal.
//
// HTTP: POST /api/accounts/{accountID}/goals
// REQUEST BODY: {"title":"Lose 5kg","targetValue":"5kg","targetDate":"2025-06-01"}
func (h *HealthHandler) HandleAddGoal(w http.ResponseWriter, r *http.Request) {
	var req addGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	goal, err := h.health.AddHealthGoal(r.Context(), chi.URLParam(r, "accountID"),
		req.Title, req.Description, req.TargetValue, req.TargetDate)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

// HandleListGoals lists goals, newest first.
//
// HTTP: GET /api/accounts/{accountID}/goals?limit=&offset=
func (h *HealthHandler) HandleListGoals(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	goals, err := h.health.ListHealthGoals(r.Context(), chi.URLParam(r, "accountID"), opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// HandleCountActiveGoals returns {"count": n}.
//
// HTTP: GET /api/accounts/{accountID}/goals/active/count
func (h *HealthHandler) HandleCountActiveGoals(w http.ResponseWriter, r *http.Request) {
	n, err := h.health.CountActiveGoals(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// HandleDashboard returns the owner's overview.
//
// HTTP: GET /api/accounts/{accountID}/dashboard
func (h *HealthHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.health.Dashboard(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
