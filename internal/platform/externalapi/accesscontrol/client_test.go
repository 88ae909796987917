package accesscontrol

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL}, server.Client())
}

func strPtr(s string) *string { return &s }

func TestClient_FindArea(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/areas/A1":
			_, _ = w.Write([]byte(`{"id":"A1","name":"Server room"}`))
		case "/api/areas/A500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	area, err := c.FindArea(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, &entity.Area{ID: "A1", Name: "Server room"}, area)

	_, err = c.FindArea(ctx, "A404")
	assert.ErrorIs(t, err, domain.ErrAreaNotFound)

	_, err = c.FindArea(ctx, "A500")
	assert.ErrorIs(t, err, domain.ErrAccessControlUnavailable)
}

func TestClient_HasGrant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		want    bool
		wantErr error
	}{
		{"grant exists", http.StatusOK, true, nil},
		{"no content also counts", http.StatusNoContent, true, nil},
		{"no grant", http.StatusNotFound, false, nil},
		{"server error", http.StatusServiceUnavailable, false, domain.ErrAccessControlUnavailable},
		{"forbidden", http.StatusForbidden, false, domain.ErrAccessControlUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/areas/A1/grants/E1", r.URL.Path)
				w.WriteHeader(tt.status)
			})

			ok, err := c.HasGrant(context.Background(), "E1", "A1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestClient_Create(t *testing.T) {
	t.Parallel()

	var got accessLogRequest
	var gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/access-logs", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotKey = r.Header.Get("Idempotency-Key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"svc-log-1"}`))
	})

	ts := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	entry := &entity.AccessLogEntry{
		ID:         "log-1",
		AreaID:     strPtr("A1"),
		SubjectID:  strPtr("E1"),
		DeviceID:   "scanner-7",
		Timestamp:  ts,
		AccessType: entity.AccessTypeEntry,
		Authorized: true,
		ScanKey:    "k-1",
	}

	require.NoError(t, c.Create(context.Background(), entry))

	assert.Equal(t, "svc-log-1", entry.ID, "service-assigned id replaces the local one")
	assert.Equal(t, entity.DeviceScanKey("scanner-7", "k-1"), gotKey)
	assert.Equal(t, "log-1", got.ID)
	assert.Equal(t, "A1", *got.AreaID)
	assert.Equal(t, "E1", *got.SubjectID)
	assert.Equal(t, "ENTRY", got.AccessType)
	assert.True(t, got.Authorized)
	assert.True(t, ts.Equal(got.Timestamp))
}

func TestClient_Create_IdempotencyKeyScopedToDevice(t *testing.T) {
	t.Parallel()

	var keys []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	})

	for _, device := range []string{"scanner-A", "scanner-B"} {
		entry := &entity.AccessLogEntry{ID: "log-" + device, DeviceID: device, AccessType: entity.AccessTypeEntry, ScanKey: "1"}
		require.NoError(t, c.Create(context.Background(), entry))
	}

	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1], "same scan key from two devices must not share an idempotency key")
}

func TestClient_Create_OmitsAbsentSubject(t *testing.T) {
	t.Parallel()

	var raw map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Idempotency-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.WriteHeader(http.StatusCreated)
	})

	entry := &entity.AccessLogEntry{ID: "log-1", AreaID: strPtr("A1"), Timestamp: time.Now().UTC(), AccessType: entity.AccessTypeEntry}
	require.NoError(t, c.Create(context.Background(), entry))

	assert.NotContains(t, raw, "subjectId")
	assert.Equal(t, false, raw["authorized"])
	assert.Equal(t, "log-1", entry.ID)
}

func TestClient_Create_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"duplicate scan", http.StatusConflict, domain.ErrDuplicateScan},
		{"server error", http.StatusInternalServerError, nil},
		{"bad request", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			err := c.Create(context.Background(), &entity.AccessLogEntry{ID: "log-1", AccessType: entity.AccessTypeEntry, ScanKey: "k-1"})

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NotErrorIs(t, err, domain.ErrDuplicateScan)
			}
		})
	}
}

func TestClient_LinkRecognition(t *testing.T) {
	t.Parallel()

	var got linkRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		if r.URL.Path != "/api/access-logs/log-1/recognition-id" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.LinkRecognition(context.Background(), "log-1", "rec-1"))
	assert.Equal(t, "rec-1", got.RecognitionID)

	assert.Error(t, c.LinkRecognition(context.Background(), "log-missing", "rec-1"))
}

func TestClient_Unreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()
	c := NewClient(Config{BaseURL: base}, &http.Client{Timeout: time.Second})
	ctx := context.Background()

	_, err := c.HasGrant(ctx, "E1", "A1")
	assert.ErrorIs(t, err, domain.ErrAccessControlUnavailable)

	_, err = c.FindArea(ctx, "A1")
	assert.ErrorIs(t, err, domain.ErrAccessControlUnavailable)

	assert.Error(t, c.Create(ctx, &entity.AccessLogEntry{ID: "log-1"}))
}
