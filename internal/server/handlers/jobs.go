package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/leadpulse/leadpulse/internal/errors"
)

// CampaignRequest is the body of /create-job and the match endpoints.
type CampaignRequest struct {
	CampaignIDs []string `json:"campaign_ids"`
}

func decodeCampaignRequest(w http.ResponseWriter, r *http.Request) (*CampaignRequest, bool) {
	var req CampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, r, http.StatusBadRequest,
			apperrors.CodeInvalidRequest, "invalid request body: "+err.Error(), nil)
		return nil, false
	}
	if len(req.CampaignIDs) == 0 {
		apperrors.WriteError(w, r, http.StatusBadRequest,
			apperrors.CodeInvalidRequest, "campaign_ids must not be empty", nil)
		return nil, false
	}
	for _, id := range req.CampaignIDs {
		if id == "" {
			apperrors.WriteError(w, r, http.StatusBadRequest,
				apperrors.CodeInvalidRequest, "campaign_ids must not contain empty ids", nil)
			return nil, false
		}
	}
	return &req, true
}

// CreateJob serves POST /create-job. It registers the job and returns
// the pending snapshot immediately; processing happens in the background.
func (a *API) CreateJob(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCampaignRequest(w, r)
	if !ok {
		return
	}

	job, err := a.engine.Launch(req.CampaignIDs)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	a.log.Info("job created",
		zap.String("job_id", job.ID),
		zap.Int("campaigns", len(job.CampaignIDs)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(job)
}

// JobStatus serves GET /job-status/{jobID} with a point-in-time snapshot.
func (a *API) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := a.store.Get(jobID)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(job)
}
