package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadpulse/leadpulse/pkg/refdata"
)

func TestRefdataHealthChecker(t *testing.T) {
	t.Run("nil store", func(t *testing.T) {
		checker := refdataHealthChecker{}
		err := checker.CheckHealth(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not initialized")
	})

	t.Run("empty directory", func(t *testing.T) {
		checker := refdataHealthChecker{store: refdata.NewStore(nil, nil)}
		err := checker.CheckHealth(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("populated store", func(t *testing.T) {
		contacts := map[string]refdata.Contact{"a@x.io": {FirstName: "A"}}
		checker := refdataHealthChecker{store: refdata.NewStore(contacts, nil)}
		assert.NoError(t, checker.CheckHealth(context.Background()))
	})
}

func TestUpstreamConfigHealthChecker(t *testing.T) {
	tests := []struct {
		name       string
		baseURL    string
		apiKey     string
		filter     string
		wantErr    bool
		errContain string
	}{
		{
			name:    "all fields valid",
			baseURL: "https://api.instantly.ai",
			apiKey:  "key",
			filter:  "FILTER_VAL_OPENED_NO_REPLY",
			wantErr: false,
		},
		{
			name:       "missing base URL",
			apiKey:     "key",
			filter:     "f",
			wantErr:    true,
			errContain: "missing base URL",
		},
		{
			name:       "missing API key",
			baseURL:    "https://api.instantly.ai",
			filter:     "f",
			wantErr:    true,
			errContain: "missing API key",
		},
		{
			name:       "missing filter",
			baseURL:    "https://api.instantly.ai",
			apiKey:     "key",
			wantErr:    true,
			errContain: "missing lead filter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := upstreamConfigHealthChecker{
				baseURL: tt.baseURL,
				apiKey:  tt.apiKey,
				filter:  tt.filter,
			}

			err := checker.CheckHealth(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContain)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
