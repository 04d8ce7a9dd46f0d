package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadpulse/leadpulse/pkg/enrich"
	"github.com/leadpulse/leadpulse/pkg/instantly"
	"github.com/leadpulse/leadpulse/pkg/jobengine"
	"github.com/leadpulse/leadpulse/pkg/jobstore"
	"github.com/leadpulse/leadpulse/pkg/refdata"
)

// testFixture is a fully wired API over a fake upstream.
type testFixture struct {
	api    *API
	store  *jobstore.Store
	router chi.Router
}

// newFixture serves the given emails as a single page per campaign.
// Campaigns absent from the map return empty listings.
func newFixture(t *testing.T, campaignLeads map[string][]string) *testFixture {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Campaign string `json:"campaign"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		items := []map[string]any{}
		for _, email := range campaignLeads[req.Campaign] {
			items = append(items, map[string]any{"email": email})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items, "next_starting_after": ""})
	}))
	t.Cleanup(srv.Close)

	client, err := instantly.New(instantly.Config{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	contacts := map[string]refdata.Contact{
		"ada@x.io":   {FirstName: "Ada", LastName: "Lovelace", LinkedInURL: "https://linkedin.com/in/ada"},
		"grace@x.io": {FirstName: "Grace", LastName: "Hopper", LinkedInURL: "https://linkedin.com/in/grace"},
	}
	messages := map[string]string{"ada@x.io": "Hi Ada"}
	enricher := enrich.New(refdata.NewStore(contacts, messages))

	store := jobstore.NewStore()
	engine := jobengine.New(client, enricher, store, jobengine.Config{PageDelay: time.Millisecond}, nil)
	api := NewAPI(engine, store, client, enricher, time.Millisecond, nil)

	router := chi.NewRouter()
	router.Post("/create-job", api.CreateJob)
	router.Get("/job-status/{jobID}", api.JobStatus)
	router.Post("/match-leads", api.MatchLeads)
	router.Post("/match-leads-go", api.MatchLeadsGo)

	return &testFixture{api: api, store: store, router: router}
}

func (f *testFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateJob_ReturnsPendingSnapshot(t *testing.T) {
	f := newFixture(t, map[string][]string{"camp-a": {"ada@x.io"}})

	rec := f.do(http.MethodPost, "/create-job", `{"campaign_ids":["camp-a"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var job jobstore.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, []string{"camp-a"}, job.CampaignIDs)
	// The snapshot is taken before the background run starts; it can be
	// pending at the latest.
	assert.Equal(t, jobstore.StatusPending, job.Status)
	assert.NotNil(t, job.Results)
}

func TestCreateJob_Validation(t *testing.T) {
	f := newFixture(t, nil)

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"no campaigns", `{"campaign_ids":[]}`},
		{"empty id", `{"campaign_ids":["camp-a",""]}`},
		{"malformed json", `{"campaign_ids":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/create-job", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
		})
	}
}

func TestJobStatus_TracksJobToCompletion(t *testing.T) {
	f := newFixture(t, map[string][]string{"camp-a": {"ada@x.io", "grace@x.io", "nobody@x.io"}})

	rec := f.do(http.MethodPost, "/create-job", `{"campaign_ids":["camp-a"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var created jobstore.Job
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	deadline := time.Now().Add(5 * time.Second)
	var job jobstore.Job
	for {
		rec := f.do(http.MethodGet, "/job-status/"+created.ID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))

		if job.Status.Terminal() {
			break
		}
		require.True(t, time.Now().Before(deadline), "job did not finish in time")
		time.Sleep(5 * time.Millisecond)
	}

	assert.Equal(t, jobstore.StatusCompleted, job.Status)
	assert.Equal(t, 3, job.TotalLeadsProcessed)
	// Only the two directory matches survive enrichment.
	assert.Equal(t, 2, job.TotalLeadsFound)
	assert.Len(t, job.Results, 2)
	assert.Equal(t, "Hi Ada", job.Results[0].InputField)
	assert.Equal(t, jobstore.StatusCompleted, job.Progress["camp-a"].Status)
}

func TestJobStatus_UnknownJob(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/job-status/3e8c2f0e-missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestMatchLeadsGo_ReturnsEnrichedRecords(t *testing.T) {
	f := newFixture(t, map[string][]string{"camp-a": {"ada@x.io", "grace@x.io"}})

	rec := f.do(http.MethodPost, "/match-leads-go", `{"campaign_ids":["camp-a"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []enrich.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&records))

	require.Len(t, records, 2)
	assert.Equal(t, "Ada Lovelace", records[0].Name)
	assert.Equal(t, "Hi Ada", records[0].InputField)
	assert.Equal(t, "", records[1].InputField)
}

func TestMatchLeads_OmitsMessages(t *testing.T) {
	f := newFixture(t, map[string][]string{"camp-a": {"ada@x.io"}})

	rec := f.do(http.MethodPost, "/match-leads", `{"campaign_ids":["camp-a"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []enrich.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&records))

	require.Len(t, records, 1)
	assert.Empty(t, records[0].InputField)
}

func TestMatchLeads_WireFieldNames(t *testing.T) {
	f := newFixture(t, map[string][]string{"camp-a": {"ada@x.io"}})

	rec := f.do(http.MethodPost, "/match-leads-go", `{"campaign_ids":["camp-a"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// The extension depends on the capitalized field names.
	var raw []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	require.Len(t, raw, 1)
	for _, key := range []string{"Name", "LinkedIn", "InputField"} {
		assert.Contains(t, raw[0], key)
	}
}

func TestMatchLeads_NoLeadsFetched(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodPost, "/match-leads", `{"campaign_ids":["camp-empty"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatchLeads_NoDirectoryMatches(t *testing.T) {
	f := newFixture(t, map[string][]string{"camp-a": {"stranger@x.io"}})

	rec := f.do(http.MethodPost, "/match-leads", `{"campaign_ids":["camp-a"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatchLeads_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client, err := instantly.New(instantly.Config{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	enricher := enrich.New(refdata.NewStore(nil, nil))
	store := jobstore.NewStore()
	engine := jobengine.New(client, enricher, store, jobengine.Config{PageDelay: time.Millisecond}, nil)
	api := NewAPI(engine, store, client, enricher, time.Millisecond, nil)

	router := chi.NewRouter()
	router.Post("/match-leads", api.MatchLeads)

	req := httptest.NewRequest(http.MethodPost, "/match-leads", strings.NewReader(`{"campaign_ids":["camp-a"]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "UPSTREAM_ERROR", resp.Error.Code)
}
