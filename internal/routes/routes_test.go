package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"guesthouse/roomsync/internal/api"
	"guesthouse/roomsync/internal/auth"
	"guesthouse/roomsync/internal/clock"
	"guesthouse/roomsync/internal/common"
	"guesthouse/roomsync/internal/config"
	"guesthouse/roomsync/internal/constants"
	"guesthouse/roomsync/internal/db/dbtest"
	"guesthouse/roomsync/internal/logging"
	"guesthouse/roomsync/internal/metrics"
	"guesthouse/roomsync/internal/models"
	"guesthouse/roomsync/internal/models/gorm"
	"guesthouse/roomsync/internal/providers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlib "gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logging.UseNop()
	os.Exit(m.Run())
}

var t0 = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

type testServer struct {
	db      *gormlib.DB
	deps    *api.Dependencies
	handler http.Handler
	token   string
	queue   *common.MemoryDispatchQueue
	clock   *clock.FakeClock
}

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gdb := dbtest.Open(t)
	reg := prometheus.NewRegistry()
	queue := common.NewMemoryDispatchQueue(64)
	clk := clock.NewFakeClock(t0)

	cfg := config.Config{
		AppVersion:               "test",
		PropertyID:               "prop-1",
		SnapshotTTL:              time.Hour,
		RetrySweepGrace:          time.Minute,
		ScheduledSyncHorizonDays: 7,
		ScheduledSyncConcurrency: 2,
	}
	deps, err := api.InitDependencies(api.Infrastructure{
		Config:     cfg,
		ORM:        gdb,
		SQL:        dbtest.SQLX(t, gdb),
		Cache:      common.NewCacheService(time.Hour, time.Hour),
		Queue:      queue,
		Secrets:    common.StaticSecretStore{"ota": "whsec-123"},
		HTTPClient: http.DefaultClient,
		Metrics:    metrics.NewMetricsRegistry(reg),
		Clock:      clk,
	})
	require.NoError(t, err)

	tokens := auth.NewTokenManager("test-secret")
	token, err := tokens.Issue("booking-engine", "", time.Hour)
	require.NoError(t, err)

	h := RegisterRoutes(deps, RouterOptions{
		UpSince:     time.Now(),
		DB:          dbtest.SQLX(t, gdb),
		Tokens:      tokens,
		CORSOrigins: []string{"http://localhost:5173"},
		Gatherer:    reg,
	})
	return &testServer{db: gdb, deps: deps, handler: h, token: token, queue: queue, clock: clk}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) room(t *testing.T, units ...string) *gorm.RoomType {
	t.Helper()
	room := &gorm.RoomType{Name: "Deluxe", UnitNumbers: models.StringList(units)}
	require.NoError(t, s.deps.Repo.RoomTypes.Create(context.Background(), room))
	return room
}

func (s *testServer) channel(t *testing.T, endpoint string) *gorm.ChannelManager {
	t.Helper()
	ch := &gorm.ChannelManager{
		Name:              "ota",
		Transport:         constants.TransportWebhook,
		EndpointURL:       endpoint,
		CredentialRef:     "ota",
		IsActive:          true,
		MaxRetries:        2,
		RetryDelaySeconds: 60,
	}
	require.NoError(t, s.deps.Repo.Channels.Create(context.Background(), ch))
	return ch
}

func TestAPI_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/latest", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status   string                     `json:"status"`
		Services map[string]json.RawMessage `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Contains(t, health.Services, "postgres")

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "roomsync_http_requests_total")
}

func TestTriggerDispatchAndAudit(t *testing.T) {
	s := newTestServer(t)

	var hits atomic.Int32
	var signature string
	var payload []byte
	ota := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		signature = r.Header.Get(providers.SignatureHeader)
		payload, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ota.Close()

	room := s.room(t, "101", "102", "103")
	ch := s.channel(t, ota.URL)

	rec, env := s.do(t, http.MethodPost, "/api/v1/sync/trigger", map[string]string{
		"room_type_id": room.ID,
		"date_from":    "2025-07-10",
		"date_to":      "2025-07-13",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var summary struct {
		EntryIDs     []string       `json:"entry_ids"`
		Availability map[string]int `json:"availability"`
		TriggeredBy  string         `json:"triggered_by"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	require.Len(t, summary.EntryIDs, 1)
	assert.Equal(t, constants.TriggeredByManual, summary.TriggeredBy)
	assert.Equal(t, map[string]int{"2025-07-10": 3, "2025-07-11": 3, "2025-07-12": 3}, summary.Availability)
	entryID := summary.EntryIDs[0]

	rec, env = s.do(t, http.MethodPost, "/api/v1/sync/entries/"+entryID+"/dispatch", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, providers.Sign("whsec-123", payload), signature)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/sync/entries/"+entryID+"/dispatch", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/sync/entries/"+entryID+"/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs struct {
		Items []struct {
			RequestPayload string `json:"request_payload"`
			Success        bool   `json:"success"`
		} `json:"items"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	require.Equal(t, 1, logs.Count)
	assert.True(t, logs.Items[0].Success)
	assert.Equal(t, string(payload), logs.Items[0].RequestPayload)

	rec, env = s.do(t, http.MethodGet, "/api/v1/sync/entries?status=success&channel_manager_id="+ch.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), entryID)

	rec, env = s.do(t, http.MethodGet, "/api/v1/sync/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), entryID)

	rec, env = s.do(t, http.MethodGet, "/api/v1/channel-managers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"last_sync_status":"success"`)
	assert.NotContains(t, string(env.Data), "credential")
}

func TestTriggerSync_Validation(t *testing.T) {
	s := newTestServer(t)
	room := s.room(t, "1")

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing room", map[string]string{"date_from": "2025-07-01", "date_to": "2025-07-02"}, http.StatusBadRequest},
		{"bad date", map[string]string{"room_type_id": room.ID, "date_from": "07/01/2025", "date_to": "2025-07-02"}, http.StatusBadRequest},
		{"empty window", map[string]string{"room_type_id": room.ID, "date_from": "2025-07-02", "date_to": "2025-07-02"}, http.StatusBadRequest},
		{"bad trigger", map[string]string{"room_type_id": room.ID, "date_from": "2025-07-01", "date_to": "2025-07-02", "triggered_by": "cron"}, http.StatusBadRequest},
		{"unknown room", map[string]string{"room_type_id": "nope", "date_from": "2025-07-01", "date_to": "2025-07-02"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodPost, "/api/v1/sync/trigger", tc.body)
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, "error", env.Status)
		})
	}
}

func TestTriggerSync_NoChannelsIsOK(t *testing.T) {
	s := newTestServer(t)
	room := s.room(t, "1")

	rec, env := s.do(t, http.MethodPost, "/api/v1/sync/trigger", map[string]string{
		"room_type_id": room.ID, "date_from": "2025-07-01", "date_to": "2025-07-02",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"no_op":true`)
}

func TestAvailabilityAndSnapshot(t *testing.T) {
	s := newTestServer(t)
	room := s.room(t, "1", "2")
	unit := "1"
	require.NoError(t, s.db.Create(&gorm.Booking{
		RoomTypeID:          room.ID,
		CheckIn:             time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
		CheckOut:            time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC),
		Status:              "confirmed",
		AllocatedUnitNumber: &unit,
	}).Error)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/room-types/"+room.ID+"/availability/snapshot", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/api/v1/room-types/"+room.ID+"/availability?from=2025-07-01&to=2025-07-04", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `{"date":"2025-07-02","available":1}`)
	assert.Contains(t, string(env.Data), `{"date":"2025-07-03","available":2}`)

	_, _ = s.do(t, http.MethodPost, "/api/v1/sync/trigger", map[string]string{
		"room_type_id": room.ID, "date_from": "2025-07-01", "date_to": "2025-07-04",
	})
	rec, env = s.do(t, http.MethodGet, "/api/v1/room-types/"+room.ID+"/availability/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"date_from":"2025-07-01"`)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/room-types/"+room.ID+"/availability?from=bad", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlackoutEndpoints(t *testing.T) {
	s := newTestServer(t)
	room := s.room(t, "1", "2")
	s.channel(t, "http://127.0.0.1:1/unused")
	path := "/api/v1/room-types/" + room.ID + "/blackouts"

	rec, env := s.do(t, http.MethodPost, path, map[string]string{"date": "2025-08-01", "unit_number": "2", "reason": "paint"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `"triggered_by":"blackout"`)
	assert.Contains(t, string(env.Data), `"2025-08-01":1`)
	assert.Contains(t, string(env.Data), `"created_by":"booking-engine"`)

	rec, env = s.do(t, http.MethodPost, path, map[string]string{"date": "2025-08-01", "unit_number": "2"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"created":false`)
	assert.Contains(t, string(env.Data), `"triggered_by":"blackout"`)

	rec, env = s.do(t, http.MethodDelete, path+"?date=2025-08-01&unit_number=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"2025-08-01":2`)

	rec, env = s.do(t, http.MethodDelete, path+"?date=2025-08-01&unit_number=2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"removed":false`)
	assert.Contains(t, string(env.Data), `"2025-08-01":2`)

	rec, _ = s.do(t, http.MethodPost, path, map[string]string{"unit_number": "2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingEventEndpoint(t *testing.T) {
	s := newTestServer(t)
	room := s.room(t, "1")
	s.channel(t, "http://127.0.0.1:1/unused")
	booking := &gorm.Booking{
		RoomTypeID: room.ID,
		CheckIn:    time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC),
		Status:     "cancelled",
	}
	require.NoError(t, s.db.Create(booking).Error)

	rec, env := s.do(t, http.MethodPost, "/api/v1/bookings/"+booking.ID+"/events",
		map[string]string{"previous_check_out": "2025-09-14"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `"date_to":"2025-09-14"`)
	assert.Contains(t, string(env.Data), `"triggered_by":"booking"`)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/bookings/missing/events", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobsEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.room(t, "1")
	s.channel(t, "http://127.0.0.1:1/unused")

	rec, env := s.do(t, http.MethodPost, "/api/v1/jobs/scheduled-sync", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, string(env.Data), `"entries":1`)

	rec, env = s.do(t, http.MethodPost, "/api/v1/jobs/retry-sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"enqueued":0`)
}

func TestListEntries_RejectsBadFilters(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/sync/entries?status=done", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/sync/entries?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
