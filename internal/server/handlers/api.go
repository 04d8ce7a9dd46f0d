package handlers

import (
	"time"

	"go.uber.org/zap"

	"github.com/leadpulse/leadpulse/pkg/enrich"
	"github.com/leadpulse/leadpulse/pkg/instantly"
	"github.com/leadpulse/leadpulse/pkg/jobengine"
	"github.com/leadpulse/leadpulse/pkg/jobstore"
)

// API bundles the dependencies behind the lead endpoints.
type API struct {
	engine   *jobengine.Engine
	store    *jobstore.Store
	client   *instantly.Client
	enricher *enrich.Engine

	// pageDelay paces upstream page requests on the synchronous match
	// endpoints; the job engine paces its own.
	pageDelay time.Duration

	log *zap.Logger
}

// NewAPI creates the endpoint handler set.
func NewAPI(engine *jobengine.Engine, store *jobstore.Store, client *instantly.Client, enricher *enrich.Engine, pageDelay time.Duration, log *zap.Logger) *API {
	if pageDelay <= 0 {
		pageDelay = 500 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		engine:    engine,
		store:     store,
		client:    client,
		enricher:  enricher,
		pageDelay: pageDelay,
		log:       log,
	}
}
