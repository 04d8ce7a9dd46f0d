package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
)

func TestSetVersionInfo(t *testing.T) {
	origVersion := versionInfo.Version
	origCommit := versionInfo.Commit
	origBuildDate := versionInfo.BuildDate
	defer func() {
		versionInfo.Version = origVersion
		versionInfo.Commit = origCommit
		versionInfo.BuildDate = origBuildDate
	}()

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
	}{
		{
			name:      "set all values",
			version:   "1.0.0",
			commit:    "abc123",
			buildDate: "2026-08-29",
		},
		{
			name:      "set dev version",
			version:   "dev",
			commit:    "HEAD",
			buildDate: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersionInfo(tt.version, tt.commit, tt.buildDate)

			assert.Equal(t, tt.version, versionInfo.Version)
			assert.Equal(t, tt.commit, versionInfo.Commit)
			assert.Equal(t, tt.buildDate, versionInfo.BuildDate)
		})
	}
}

func TestExitError(t *testing.T) {
	cause := errors.New("boom")
	err := exitError(foundry.ExitInvalidArgument, "Invalid manifest", cause)

	assert.Equal(t, "Invalid manifest: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, foundry.ExitInvalidArgument, ExitCode(err))
}

func TestExitCode_UncodedErrorDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, ExitCode(errors.New("plain failure")))
}

func TestExitCode_WrappedCodedError(t *testing.T) {
	coded := exitError(foundry.ExitExternalServiceUnavailable, "Export failed", errors.New("s3 down"))
	wrapped := fmt.Errorf("command: %w", coded)

	assert.Equal(t, foundry.ExitExternalServiceUnavailable, ExitCode(wrapped))
}
