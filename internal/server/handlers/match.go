package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/leadpulse/leadpulse/internal/errors"
	"github.com/leadpulse/leadpulse/pkg/enrich"
	"github.com/leadpulse/leadpulse/pkg/instantly"
)

// MatchLeads serves POST /match-leads: fetch every campaign's leads in
// the request goroutine and join them against the contact directory.
// Kept for extension versions that predate the async job flow.
func (a *API) MatchLeads(w http.ResponseWriter, r *http.Request) {
	a.matchSync(w, r, a.enricher.Match)
}

// MatchLeadsGo serves POST /match-leads-go: the same synchronous flow
// with personalized messages attached to each record.
func (a *API) MatchLeadsGo(w http.ResponseWriter, r *http.Request) {
	a.matchSync(w, r, a.enricher.Enrich)
}

func (a *API) matchSync(w http.ResponseWriter, r *http.Request, join func([]instantly.RawLead) []enrich.Record) {
	req, ok := decodeCampaignRequest(w, r)
	if !ok {
		return
	}

	leads, err := a.fetchAllLeads(r.Context(), req.CampaignIDs)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if len(leads) == 0 {
		apperrors.WriteError(w, r, http.StatusNotFound, apperrors.CodeNotFound,
			"no leads were fetched for any campaign id", nil)
		return
	}

	withEmail := 0
	for _, lead := range leads {
		if _, ok := lead.Email(); ok {
			withEmail++
		}
	}
	if withEmail == 0 {
		apperrors.WriteError(w, r, http.StatusBadRequest, apperrors.CodeValidationError,
			"no emails found in the fetched leads", nil)
		return
	}

	records := join(leads)
	if len(records) == 0 {
		apperrors.WriteError(w, r, http.StatusNotFound, apperrors.CodeNotFound,
			"no fetched emails matched the contact directory", nil)
		return
	}

	a.log.Info("synchronous match served",
		zap.Int("campaigns", len(req.CampaignIDs)),
		zap.Int("leads", len(leads)),
		zap.Int("matched", len(records)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(records)
}

// fetchAllLeads drains every campaign's pages into one slice, pacing
// page requests with a single limiter shared across campaigns. Unlike
// the job flow, any fetch failure aborts the whole request.
func (a *API) fetchAllLeads(ctx context.Context, campaignIDs []string) ([]instantly.RawLead, error) {
	limiter := rate.NewLimiter(rate.Every(a.pageDelay), 1)

	var leads []instantly.RawLead
	for _, campaignID := range campaignIDs {
		pages := a.client.Pages(campaignID)
		for {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
			page, err := pages.Next(ctx)
			if errors.Is(err, instantly.ErrNoMorePages) {
				break
			}
			if err != nil {
				return nil, err
			}
			leads = append(leads, page.Items...)
		}
	}
	return leads, nil
}
