package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/leadpulse/leadpulse/pkg/instantly"
)

// Campaign export outcome values.
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
)

// CampaignResult is the outcome of exporting one campaign.
type CampaignResult struct {
	CampaignID string
	Status     string
	Leads      int
	Path       string
	UploadURI  string
	Message    string
	Duration   time.Duration
}

// Uploader pushes a finished export file to remote storage.
type Uploader interface {
	Upload(ctx context.Context, localPath, name string) (string, error)
}

// Exporter runs one-shot campaign exports. It shares the fetch client with
// the job engine but has no job state and no concurrency: campaigns run
// sequentially in the calling goroutine.
type Exporter struct {
	client   *instantly.Client
	uploader Uploader
	log      *zap.Logger
}

// New creates an exporter. uploader may be nil for local-only exports.
func New(client *instantly.Client, uploader Uploader, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{client: client, uploader: uploader, log: log}
}

// Run exports every campaign in the manifest. A campaign's failure is
// captured in its result and does not abort the remaining campaigns.
func (e *Exporter) Run(ctx context.Context, m *Manifest) ([]CampaignResult, error) {
	if err := os.MkdirAll(m.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("exporter: create output dir: %w", err)
	}

	results := make([]CampaignResult, 0, len(m.Campaigns))
	for _, campaignID := range m.Campaigns {
		results = append(results, e.exportCampaign(ctx, campaignID, m))
	}
	return results, nil
}

func (e *Exporter) exportCampaign(ctx context.Context, campaignID string, m *Manifest) CampaignResult {
	start := time.Now()
	result := CampaignResult{CampaignID: campaignID}

	path := filepath.Join(m.Output.Dir,
		fmt.Sprintf("campaign_%s_%s.csv", campaignID, start.Format("20060102_150405")))

	leads, err := e.writeCampaignCSV(ctx, campaignID, path, m.PageDelay)
	if err != nil {
		e.log.Warn("campaign export failed",
			zap.String("campaign_id", campaignID),
			zap.Error(err))
		result.Status = StatusError
		result.Message = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	result.Leads = leads
	result.Path = path
	result.Duration = time.Since(start)
	if leads == 0 {
		result.Status = StatusWarning
		result.Message = "no leads found for this campaign"
		return result
	}
	result.Status = StatusSuccess

	if e.uploader != nil {
		uri, err := e.uploader.Upload(ctx, path, filepath.Base(path))
		if err != nil {
			result.Status = StatusWarning
			result.Message = fmt.Sprintf("exported locally but upload failed: %v", err)
			return result
		}
		result.UploadURI = uri
	}

	e.log.Info("campaign exported",
		zap.String("campaign_id", campaignID),
		zap.Int("leads", leads),
		zap.String("path", path),
		zap.Duration("duration", result.Duration))
	return result
}

// writeCampaignCSV streams a campaign's pages into a CSV file. The first
// page fixes the column order; later pages fill missing columns with ""
// and drop columns the first page did not have.
func (e *Exporter) writeCampaignCSV(ctx context.Context, campaignID, path string, delay time.Duration) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("exporter: create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	limiter := rate.NewLimiter(rate.Every(delay), 1)
	pages := e.client.Pages(campaignID)

	var columns []string
	total := 0

	for {
		if err := limiter.Wait(ctx); err != nil {
			return total, err
		}

		page, err := pages.Next(ctx)
		if errors.Is(err, instantly.ErrNoMorePages) {
			break
		}
		if err != nil {
			return total, err
		}

		if columns == nil && len(page.Items) > 0 {
			columns = leadColumns(page.Items)
			if err := w.Write(columns); err != nil {
				return total, fmt.Errorf("exporter: write %s: %w", path, err)
			}
		}

		for _, lead := range page.Items {
			row := make([]string, len(columns))
			for i, col := range columns {
				row[i] = fieldString(lead[col])
			}
			if err := w.Write(row); err != nil {
				return total, fmt.Errorf("exporter: write %s: %w", path, err)
			}
		}
		total += len(page.Items)

		e.log.Debug("page exported",
			zap.String("campaign_id", campaignID),
			zap.Int("page", pages.PageCount()),
			zap.Int("total", total))
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return total, fmt.Errorf("exporter: flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return total, fmt.Errorf("exporter: close %s: %w", path, err)
	}
	return total, nil
}

// leadColumns derives the column set from the first page's leads, sorted
// for a stable header across runs.
func leadColumns(leads []instantly.RawLead) []string {
	seen := map[string]struct{}{}
	var columns []string
	for _, lead := range leads {
		for key := range lead {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			columns = append(columns, key)
		}
	}
	sort.Strings(columns)
	return columns
}

// fieldString renders an opaque lead field as a CSV cell.
func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
