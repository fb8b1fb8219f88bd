package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/breachlens/breachlens-api/internal/database"
	"github.com/breachlens/breachlens-api/internal/models"
	"github.com/breachlens/breachlens-api/internal/queue"
	"github.com/breachlens/breachlens-api/internal/request"
	"github.com/breachlens/breachlens-api/internal/services/advice"
	"github.com/breachlens/breachlens-api/internal/services/strength"
)

// PasswordChecker counts breach-corpus appearances of a password
type PasswordChecker interface {
	CheckPassword(ctx context.Context, password string) (int, error)
}

// AnalysisHandler handles password and account analysis requests
type AnalysisHandler struct {
	checker  PasswordChecker
	advisor  advice.Provider
	reports  database.BreachReportRepositoryInterface
	jobQueue queue.JobQueue
	logger   *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler. checker and advisor
// may be nil; the corresponding enrichments are then skipped.
func NewAnalysisHandler(
	checker PasswordChecker,
	advisor advice.Provider,
	reports database.BreachReportRepositoryInterface,
	jobQueue queue.JobQueue,
	zapLogger *zap.Logger,
) *AnalysisHandler {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &AnalysisHandler{
		checker:  checker,
		advisor:  advisor,
		reports:  reports,
		jobQueue: jobQueue,
		logger:   zapLogger,
	}
}

// RegisterRoutes registers analysis routes on the given router
// The router should already have the /analysis prefix
func (h *AnalysisHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/strength", h.AnalyzeStrength).Methods("POST")
	r.HandleFunc("/breach", h.RequestBreachScan).Methods("POST")
	r.HandleFunc("/report", h.GetBreachReport).Methods("GET")
}

// StrengthRequest carries the candidate password. It is analyzed in memory
// and never stored or logged.
type StrengthRequest struct {
	Password    string `json:"password"`
	CheckBreach bool   `json:"checkBreach,omitempty"`
	WithAdvice  bool   `json:"withAdvice,omitempty"`
}

// StrengthResponse carries the analysis outcome
type StrengthResponse struct {
	Report models.StrengthReport `json:"report"`
	Advice string                `json:"advice,omitempty"`
}

// AnalyzeStrength scores a candidate password
func (h *AnalysisHandler) AnalyzeStrength(w http.ResponseWriter, r *http.Request) {
	var req StrengthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}
	if req.Password == "" {
		respondJSONError(w, http.StatusBadRequest, "Validation Failed", "password is required")
		return
	}

	ctx := r.Context()
	report := strength.Analyze(req.Password)

	if req.CheckBreach && h.checker != nil {
		count, err := h.checker.CheckPassword(ctx, req.Password)
		if err != nil {
			// The local score still stands when the corpus is unreachable.
			h.logger.Warn("breach_corpus_check_failed", zap.Error(err))
		} else {
			report.Pwned = &count
			if count > 0 && report.Score > 1 {
				report.Score = 1
			}
		}
	}

	resp := StrengthResponse{Report: report}
	if req.WithAdvice && h.advisor != nil {
		text, err := h.advisor.HardeningAdvice(ctx, report)
		if err != nil {
			h.logger.Warn("advice_generation_failed", zap.Error(err))
		} else {
			resp.Advice = text
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// RequestBreachScan enqueues an asynchronous account scan for the caller
func (h *AnalysisHandler) RequestBreachScan(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	if h.jobQueue == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Scan Unavailable", "Background scanning is not configured")
		return
	}

	job := queue.NewJob(queue.JobTypeAccountScan, user.ID, user.Email)
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("failed_to_enqueue_account_scan", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Scan Failed", "Could not schedule the scan")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "scan scheduled"})
}

// GetBreachReport returns the caller's most recent scan outcome
func (h *AnalysisHandler) GetBreachReport(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	report, err := h.reports.GetLatestByUserID(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "No scan has completed for this account yet")
			return
		}
		h.logger.Error("breach_report_load_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Report Unavailable", "Could not load the report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
