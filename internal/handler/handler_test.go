package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pulsenet-client/internal/mapview"
	"pulsenet-client/internal/models"
	"pulsenet-client/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMatchController is a mock implementation of the MatchController interface
type MockMatchController struct {
	mock.Mock
}

func (m *MockMatchController) State() service.State {
	args := m.Called()
	return args.Get(0).(service.State)
}

func (m *MockMatchController) SubmitQuery(ctx context.Context, form models.MatchForm) service.State {
	args := m.Called(ctx, form)
	return args.Get(0).(service.State)
}

func (m *MockMatchController) UseMyLocation(ctx context.Context) service.State {
	args := m.Called(ctx)
	return args.Get(0).(service.State)
}

func (m *MockMatchController) Subscribe(fn func(service.State)) func() {
	args := m.Called(fn)
	return args.Get(0).(func())
}

// MockRouteMap is a mock implementation of the RouteMap interface
type MockRouteMap struct {
	mock.Mock
}

func (m *MockRouteMap) View() mapview.View {
	args := m.Called()
	return args.Get(0).(mapview.View)
}

func (m *MockRouteMap) SelectDonorForRoute(ctx context.Context, candidate models.DonorCandidate) bool {
	args := m.Called(ctx, candidate)
	return args.Bool(0)
}

func (m *MockRouteMap) ClearRoute() mapview.View {
	args := m.Called()
	return args.Get(0).(mapview.View)
}

func (m *MockRouteMap) Subscribe(fn func(mapview.View)) func() {
	args := m.Called(fn)
	return args.Get(0).(func())
}

func ptr(v float64) *float64 { return &v }

var (
	locatedDonor = models.DonorCandidate{
		DonorID:        "D1",
		Name:           "Asha",
		BloodGroup:     "O-",
		Phone:          "9876543210",
		Lat:            ptr(12.95),
		Lon:            ptr(77.6),
		DistanceMeters: ptr(2345),
		Score:          ptr(0.91234),
	}
	unlocatedDonor = models.DonorCandidate{Name: "Ravi", BloodGroup: "O-"}
)

func fixtureState() service.State {
	return service.State{
		Form:       models.DefaultMatchForm(),
		Candidates: []models.DonorCandidate{locatedDonor, unlocatedDonor},
		Alert:      &models.Alert{Type: models.AlertTypeCriticalMatch, Level: models.AlertLevelCritical, Message: "Critical request"},
		Status:     service.StatusMatchesLoaded,
	}
}

func newTestHandler(ctrl *MockMatchController, routes *MockRouteMap) *Handler {
	return NewHandler(ctrl, routes, nil, zerolog.Nop())
}

func TestHandler_Health(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Setup
	h := newTestHandler(new(MockMatchController), new(MockRouteMap))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	// Execute
	h.Health(c)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandler_State(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Setup
	ctrl := new(MockMatchController)
	routes := new(MockRouteMap)
	fits := &mapview.BoundsRecorder{}
	ctrl.On("State").Return(fixtureState())
	routes.On("View").Return(mapview.View{
		Zoom:  mapview.DefaultZoom,
		Route: &mapview.Route{Geometry: models.Geometry{{12.9, 77.5}, {12.95, 77.6}}, DistanceMeters: ptr(15200), DurationSeconds: ptr(1380)},
	})
	h := NewHandler(ctrl, routes, fits, zerolog.Nop())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/state", nil)

	// Execute
	h.State(c)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, service.StatusMatchesLoaded, snap.Status)
	require.NotNil(t, snap.Alert)
	assert.Equal(t, "Critical match found", snap.Alert.Title)
	assert.True(t, snap.Alert.Critical)
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, ResultRow{
		Key: "D1", DonorID: "D1", Name: "Asha", BloodGroup: "O-", Phone: "9876543210",
		Distance: "2.3 km", Score: "0.912",
	}, snap.Rows[0])
	assert.Equal(t, "N/A", snap.Rows[1].Distance)
	assert.Equal(t, "", snap.Rows[1].Score)
	assert.Equal(t, "23 min • 15.2 km", snap.Map.RouteSummary)
	assert.Equal(t, mapview.DefaultZoom, snap.Map.Zoom)
	assert.Nil(t, snap.Map.Fit)
}

func TestHandler_Match(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		body           string
		expectSubmit   bool
		expectedForm   models.MatchForm
		expectedStatus int
	}{
		{
			name:           "malformed body",
			body:           `{"top_n": "five"`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:         "partial body keeps current form values",
			body:         `{"required_blood_group":"O-","lat":"12.97","lon":"77.59","units_needed":2,"urgency_level":"critical"}`,
			expectSubmit: true,
			expectedForm: models.MatchForm{
				BloodGroup: "O-", Lat: "12.97", Lon: "77.59", UnitsNeeded: 2, UrgencyLevel: "critical", TopN: 5,
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			ctrl := new(MockMatchController)
			routes := new(MockRouteMap)
			ctrl.On("State").Return(fixtureState())
			routes.On("View").Return(mapview.View{})
			if tt.expectSubmit {
				ctrl.On("SubmitQuery", mock.Anything, tt.expectedForm).Return(fixtureState())
			}
			h := newTestHandler(ctrl, routes)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/match", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			// Execute
			h.Match(c)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectSubmit {
				ctrl.AssertExpectations(t)
			} else {
				ctrl.AssertNotCalled(t, "SubmitQuery", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHandler_Location(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Setup
	ctrl := new(MockMatchController)
	routes := new(MockRouteMap)
	ctrl.On("UseMyLocation", mock.Anything).Return(fixtureState())
	ctrl.On("State").Return(fixtureState())
	routes.On("View").Return(mapview.View{})
	h := newTestHandler(ctrl, routes)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/location", nil)

	// Execute
	h.Location(c)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	ctrl.AssertExpectations(t)
}

func TestHandler_SelectRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		body           string
		selected       *models.DonorCandidate
		selectResult   bool
		expectedStatus int
		expectedBody   gin.H
	}{
		{
			name:           "missing donor key",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   gin.H{"error": "missing required field 'donor_key'"},
		},
		{
			name:           "unknown donor key",
			body:           `{"donor_key":"nobody"}`,
			expectedStatus: http.StatusNotFound,
			expectedBody:   gin.H{"error": "no candidate with that key"},
		},
		{
			name:           "candidate without coordinates",
			body:           `{"donor_key":"` + unlocatedDonor.Key() + `"}`,
			selected:       &unlocatedDonor,
			selectResult:   false,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   gin.H{"error": "candidate has no coordinates"},
		},
		{
			name:           "route requested",
			body:           `{"donor_key":"D1"}`,
			selected:       &locatedDonor,
			selectResult:   true,
			expectedStatus: http.StatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			ctrl := new(MockMatchController)
			routes := new(MockRouteMap)
			ctrl.On("State").Return(fixtureState())
			routes.On("View").Return(mapview.View{LoadingKey: "D1"}).Maybe()
			if tt.selected != nil {
				routes.On("SelectDonorForRoute", mock.Anything, *tt.selected).Return(tt.selectResult)
			}
			h := newTestHandler(ctrl, routes)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/route", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			// Execute
			h.SelectRoute(c)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != nil {
				var actual gin.H
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &actual))
				assert.Equal(t, tt.expectedBody, actual)
			} else {
				var snap Snapshot
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
				assert.Equal(t, "D1", snap.Map.LoadingKey)
			}
			if tt.selected == nil {
				routes.AssertNotCalled(t, "SelectDonorForRoute", mock.Anything, mock.Anything)
			} else {
				routes.AssertExpectations(t)
			}
		})
	}
}

func TestHandler_ClearRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Setup
	ctrl := new(MockMatchController)
	routes := new(MockRouteMap)
	ctrl.On("State").Return(fixtureState())
	routes.On("ClearRoute").Return(mapview.View{})
	routes.On("View").Return(mapview.View{})
	h := newTestHandler(ctrl, routes)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/route", nil)

	// Execute
	h.ClearRoute(c)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	routes.AssertCalled(t, "ClearRoute")
}

func TestHandler_RouteGeoJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		route          *mapview.Route
		expectedStatus int
	}{
		{name: "no route", expectedStatus: http.StatusNotFound},
		{
			name:           "loaded route",
			route:          &mapview.Route{Geometry: models.Geometry{{12.9, 77.5}, {12.95, 77.6}}, DistanceMeters: ptr(5000)},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			routes := new(MockRouteMap)
			routes.On("View").Return(mapview.View{Route: tt.route})
			h := newTestHandler(new(MockMatchController), routes)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/route.geojson", nil)

			// Execute
			h.RouteGeoJSON(c)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.route != nil {
				var fc struct {
					Type     string `json:"type"`
					Features []struct {
						Geometry struct {
							Type        string       `json:"type"`
							Coordinates [][2]float64 `json:"coordinates"`
						} `json:"geometry"`
					} `json:"features"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
				assert.Equal(t, "FeatureCollection", fc.Type)
				require.Len(t, fc.Features, 1)
				assert.Equal(t, "LineString", fc.Features[0].Geometry.Type)
				assert.Equal(t, [2]float64{77.5, 12.9}, fc.Features[0].Geometry.Coordinates[0])
			}
		})
	}
}

func TestHandler_Events(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Setup
	ctrl := new(MockMatchController)
	routes := new(MockRouteMap)
	subscribed := make(chan func(service.State), 1)
	ctrl.On("State").Return(fixtureState())
	ctrl.On("Subscribe", mock.Anything).Run(func(args mock.Arguments) {
		subscribed <- args.Get(0).(func(service.State))
	}).Return(func() {})
	routes.On("View").Return(mapview.View{})
	routes.On("Subscribe", mock.Anything).Return(func() {})

	r := gin.New()
	newTestHandler(ctrl, routes).Register(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)

	// Execute
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	reader := bufio.NewReader(resp.Body)

	// Assert
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))
	first := readEvent(t, reader)
	assert.Contains(t, first, service.StatusMatchesLoaded)

	notify := <-subscribed
	notify(fixtureState())
	second := readEvent(t, reader)
	assert.Contains(t, second, `"rows"`)
}

// readEvent returns the data line of the next "state" event.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var sawEvent bool
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		switch {
		case line == "event:state":
			sawEvent = true
		case sawEvent && strings.HasPrefix(line, "data:"):
			return strings.TrimPrefix(line, "data:")
		}
	}
}
