// Package jobstore holds the in-memory records of asynchronous enrichment
// jobs and mediates all access to them behind a single lock.
package jobstore

import (
	"time"

	"github.com/google/uuid"

	"github.com/leadpulse/leadpulse/pkg/enrich"
)

// Status is the lifecycle state of a job or of one campaign within a job.
//
// NOTE: These values are returned verbatim in job-status responses and are
// part of the stable API contract.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CampaignProgress tracks one campaign's slice of a job.
type CampaignProgress struct {
	Status         Status  `json:"status"`
	LeadsFetched   int     `json:"leads_fetched"`
	LeadsProcessed int     `json:"leads_processed"`
	Message        string  `json:"message,omitempty"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
}

// Job is one asynchronous multi-campaign fetch-and-enrich operation.
//
// Results is append-only and grows as pages are processed, so a status
// poll mid-flight observes partial results. TotalLeadsFound always equals
// len(Results); the counters never decrease.
type Job struct {
	ID                  string                       `json:"job_id"`
	Status              Status                       `json:"status"`
	Message             string                       `json:"message,omitempty"`
	CampaignIDs         []string                     `json:"campaign_ids"`
	Progress            map[string]*CampaignProgress `json:"progress"`
	Results             []enrich.Record              `json:"results"`
	TotalLeadsProcessed int                          `json:"total_leads_processed"`
	TotalLeadsFound     int                          `json:"total_leads_found"`
	CreatedAt           time.Time                    `json:"created_at"`
	LastUpdated         time.Time                    `json:"last_updated"`
	ProcessingTime      float64                      `json:"processing_time,omitempty"`
}

// NewJob allocates a pending job for the given campaigns.
func NewJob(campaignIDs []string) *Job {
	now := time.Now().UTC()

	ids := make([]string, len(campaignIDs))
	copy(ids, campaignIDs)

	progress := make(map[string]*CampaignProgress, len(ids))
	for _, id := range ids {
		progress[id] = &CampaignProgress{Status: StatusPending}
	}

	return &Job{
		ID:          uuid.New().String(),
		Status:      StatusPending,
		CampaignIDs: ids,
		Progress:    progress,
		Results:     []enrich.Record{},
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// Clone returns a deep copy of the job. Snapshots handed to callers must
// not alias the stored record's slices or maps.
func (j *Job) Clone() *Job {
	out := *j

	out.CampaignIDs = make([]string, len(j.CampaignIDs))
	copy(out.CampaignIDs, j.CampaignIDs)

	out.Progress = make(map[string]*CampaignProgress, len(j.Progress))
	for id, p := range j.Progress {
		cp := *p
		out.Progress[id] = &cp
	}

	out.Results = make([]enrich.Record, len(j.Results))
	copy(out.Results, j.Results)

	return &out
}
