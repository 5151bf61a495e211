package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, routeStatus int, routeBody string) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/match", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"matches": [
				{"donor_id": "D1", "name": "Asha", "blood_group": "O-", "phone": 9876543210, "lat": 12.95, "lon": 77.6, "distance_m": 2400, "score": 0.9}
			],
			"alert": {"type": "critical_match", "level": "critical", "message": "Critical: only 1 compatible donor within 5km"}
		}`))
	})
	mux.HandleFunc("/api/route", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(routeStatus)
		_, _ = w.Write([]byte(routeBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	t.Setenv("PULSENET_API_BASE_URL", srv.URL)
	t.Setenv("PULSENET_VOICE_ENABLED", "false")
	t.Setenv("PULSENET_GEOLOCATION_ENABLED", "false")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, "--config", t.TempDir()))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRouteCommand(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expectedOut []string
		expectedErr string
	}{
		{
			name:   "lon-first geometry is normalized",
			status: http.StatusOK,
			body:   `{"geometry": [[120.5, 13.0], [120.6, 13.1]], "distance_m": 15200, "duration_s": 1380}`,
			expectedOut: []string{
				"Points:   2",
				"Distance: 15.2 km",
				"Duration: 23 min",
				"Start:    13.000000, 120.500000",
				"End:      13.100000, 120.600000",
			},
		},
		{
			name:        "missing metrics",
			status:      http.StatusOK,
			body:        `{"geometry": []}`,
			expectedOut: []string{"Points:   0", "Distance: N/A", "Duration: N/A"},
		},
		{
			name:        "backend detail",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail": "origin outside service area"}`,
			expectedErr: "route failed: origin outside service area",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			newBackend(t, tt.status, tt.body)

			// Execute
			out, err := runCLI(t, "route", "--from-lat", "12.97", "--from-lon", "77.59", "--to-lat", "12.95", "--to-lon", "77.6")

			// Assert
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedErr, err.Error())
				return
			}
			require.NoError(t, err)
			for _, line := range tt.expectedOut {
				assert.Contains(t, out, line)
			}
			assert.NotContains(t, out, "Start:    120.5")
		})
	}
}

func TestMatchCommand(t *testing.T) {
	// Setup
	newBackend(t, http.StatusOK, `{}`)

	// Execute
	out, err := runCLI(t, "match", "--blood-group", "O-", "--lat", "12.97", "--lon", "77.59", "--units", "2", "--urgency", "critical", "--top", "5")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "Matches loaded.")
	assert.Contains(t, out, "Critical match found: Critical: only 1 compatible donor within 5km")
	assert.Contains(t, out, "DONOR ID")
	assert.Contains(t, out, "9876543210")
	assert.Contains(t, out, "2.4 km")
	assert.Contains(t, out, "0.900")
}

func TestMatchCommand_InvalidForm(t *testing.T) {
	// Setup
	newBackend(t, http.StatusOK, `{}`)

	// Execute
	out, err := runCLI(t, "match", "--blood-group", "O-", "--lat", "", "--lon", "", "--units", "0", "--urgency", "critical", "--top", "5")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "invalid units_needed")
	assert.NotContains(t, out, "Matches loaded.")
	assert.NotContains(t, out, "DONOR ID")
}

func TestLocateCommand(t *testing.T) {
	tests := []struct {
		name        string
		enabled     string
		expectedOut []string
	}{
		{
			name:        "no location capability",
			enabled:     "false",
			expectedOut: []string{"Geolocation is not supported by this browser."},
		},
		{
			name:        "configured position",
			enabled:     "true",
			expectedOut: []string{"Using your current location for search.", "Position: 12.971600, 77.594600"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			newBackend(t, http.StatusOK, `{}`)
			t.Setenv("PULSENET_GEOLOCATION_ENABLED", tt.enabled)
			t.Setenv("PULSENET_GEOLOCATION_LAT", "12.9716")
			t.Setenv("PULSENET_GEOLOCATION_LON", "77.5946")

			// Execute
			out, err := runCLI(t, "locate")

			// Assert
			require.NoError(t, err)
			for _, line := range tt.expectedOut {
				assert.Contains(t, out, line)
			}
		})
	}
}
