package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	eventID  = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	profileA = "11111111-1111-1111-1111-111111111111"
	profileB = "22222222-2222-2222-2222-222222222222"
)

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err           error
	view          *domain.EventView
	views         []*domain.EventView
	changes       []*domain.ChangeLogEntry
	lastCreate    *domain.Event
	lastGetID     string
	lastFilter    domain.EventFilter
	lastUpdateID  string
	lastUpdate    domain.EventUpdate
	lastChangesID string
}

func (f *fakeEventService) CreateEvent(_ context.Context, e *domain.Event) (*domain.EventView, error) {
	f.lastCreate = e
	return f.view, f.err
}

func (f *fakeEventService) GetEvent(_ context.Context, id string) (*domain.EventView, error) {
	f.lastGetID = id
	return f.view, f.err
}

func (f *fakeEventService) ListEvents(_ context.Context, filter domain.EventFilter) ([]*domain.EventView, error) {
	f.lastFilter = filter
	return f.views, f.err
}

func (f *fakeEventService) UpdateEvent(_ context.Context, id string, u domain.EventUpdate) (*domain.EventView, error) {
	f.lastUpdateID = id
	f.lastUpdate = u
	return f.view, f.err
}

func (f *fakeEventService) ListChanges(_ context.Context, id string) ([]*domain.ChangeLogEntry, error) {
	f.lastChangesID = id
	return f.changes, f.err
}

type fakeCalendar struct {
	events []*domain.EventView
}

func (f *fakeCalendar) Encode(events []*domain.EventView, _ time.Time) string {
	f.events = events
	return "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
}

func sampleView() *domain.EventView {
	return &domain.EventView{
		ID:            eventID,
		Profiles:      []domain.ProfileRef{{ID: profileA, Name: "A"}, {ID: profileB, Name: "B"}},
		Timezone:      "America/New_York",
		StartDateTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		EndDateTime:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func decodeEnvelope(t *testing.T, body io.Reader) (json.RawMessage, *helpers.APIError) {
	t.Helper()
	var resp struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Data, resp.Error
}

func serve(method, pattern, target string, body []byte, h http.HandlerFunc) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(method+" "+pattern, h)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestEventController_CreateEvent(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "created",
			body:       `{"profiles":["` + profileA + `","` + profileB + `"],"timezone":"America/New_York","startDateTime":"2024-01-01T10:00:00Z","endDateTime":"2024-01-01T12:00:00Z"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing profiles",
			body:       `{"timezone":"UTC","startDateTime":"2024-01-01T10:00:00Z","endDateTime":"2024-01-01T12:00:00Z"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantMsg:    domain.MsgProfilesRequired,
		},
		{
			name:       "malformed profile id",
			body:       `{"profiles":["abc"],"timezone":"UTC","startDateTime":"2024-01-01T10:00:00Z","endDateTime":"2024-01-01T12:00:00Z"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantMsg:    domain.MsgInvalidID,
		},
		{
			name:       "blank timezone",
			body:       `{"profiles":["` + profileA + `"],"timezone":" ","startDateTime":"2024-01-01T10:00:00Z","endDateTime":"2024-01-01T12:00:00Z"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantMsg:    domain.MsgTimezoneRequired,
		},
		{
			name:       "unparseable date",
			body:       `{"profiles":["` + profileA + `"],"timezone":"UTC","startDateTime":"tomorrow","endDateTime":"2024-01-01T12:00:00Z"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantMsg:    domain.MsgInvalidDateTime,
		},
		{
			name:       "unknown field",
			body:       `{"profiles":["` + profileA + `"],"owner":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "end before start from service",
			body:       `{"profiles":["` + profileA + `"],"timezone":"UTC","startDateTime":"2024-01-01T12:00:00Z","endDateTime":"2024-01-01T10:00:00Z"}`,
			svcErr:     domain.NewValidationError(domain.MsgEndBeforeStart),
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantMsg:    domain.MsgEndBeforeStart,
		},
		{
			name:       "unknown profile",
			body:       `{"profiles":["` + profileA + `"],"timezone":"UTC","startDateTime":"2024-01-01T10:00:00Z","endDateTime":"2024-01-01T12:00:00Z"}`,
			svcErr:     &domain.ReferentialError{Missing: []string{profileA}},
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantMsg:    domain.MsgProfilesNotFound,
		},
		{
			name:       "store failure",
			body:       `{"profiles":["` + profileA + `"],"timezone":"UTC","startDateTime":"2024-01-01T10:00:00Z","endDateTime":"2024-01-01T12:00:00Z"}`,
			svcErr:     errors.New("create event: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{view: sampleView(), err: tt.svcErr}
			ctrl := NewEventController(testLogger, svc, &fakeCalendar{})

			rr := serve(http.MethodPost, "/api/events", "/api/events", []byte(tt.body), ctrl.CreateEvent)

			require.Equal(t, tt.wantStatus, rr.Code)
			data, apiErr := decodeEnvelope(t, rr.Body)
			if tt.wantCode == "" {
				require.Nil(t, apiErr)
				var view domain.EventView
				require.NoError(t, json.Unmarshal(data, &view))
				assert.Equal(t, []string{"A", "B"}, view.ProfileNames())
				require.NotNil(t, svc.lastCreate)
				assert.Equal(t, []string{profileA, profileB}, svc.lastCreate.ProfileIDs)
				assert.True(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).Equal(svc.lastCreate.StartDateTime))
				return
			}
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Contains(t, apiErr.Message, tt.wantMsg)
		})
	}
}

func TestEventController_CreateEvent_JSONShape(t *testing.T) {
	svc := &fakeEventService{view: sampleView()}
	ctrl := NewEventController(testLogger, svc, &fakeCalendar{})
	body := `{"profiles":["` + profileA + `"],"timezone":"UTC","startDateTime":"2024-01-01T10:00:00Z","endDateTime":"2024-01-01T12:00:00Z"}`

	rr := serve(http.MethodPost, "/api/events", "/api/events", []byte(body), ctrl.CreateEvent)

	require.Equal(t, http.StatusCreated, rr.Code)
	data, _ := decodeEnvelope(t, rr.Body)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"id", "profiles", "timezone", "startDateTime", "endDateTime", "createdAt", "updatedAt"} {
		assert.Contains(t, raw, key)
	}
}

func TestEventController_UpdateEvent(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
		wantMsg    string
		check      func(t *testing.T, u domain.EventUpdate)
	}{
		{
			name:       "timezone only",
			target:     "/api/events/" + eventID,
			body:       `{"timezone":"Europe/London"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, u domain.EventUpdate) {
				require.NotNil(t, u.Timezone)
				assert.Equal(t, "Europe/London", *u.Timezone)
				assert.Nil(t, u.ProfileIDs)
				assert.Nil(t, u.StartDateTime)
				assert.Nil(t, u.EndDateTime)
			},
		},
		{
			name:       "empty body object",
			target:     "/api/events/" + eventID,
			body:       `{}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, u domain.EventUpdate) {
				assert.True(t, u.IsEmpty())
			},
		},
		{
			name:       "profiles and end",
			target:     "/api/events/" + eventID,
			body:       `{"profiles":["` + profileB + `"],"endDateTime":"2024-01-01T13:00:00.250Z"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, u domain.EventUpdate) {
				require.NotNil(t, u.ProfileIDs)
				assert.Equal(t, []string{profileB}, *u.ProfileIDs)
				require.NotNil(t, u.EndDateTime)
				assert.True(t, time.Date(2024, 1, 1, 13, 0, 0, 250*int(time.Millisecond), time.UTC).Equal(*u.EndDateTime))
			},
		},
		{
			name:       "malformed id",
			target:     "/api/events/not-a-uuid",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantMsg:    domain.MsgInvalidID,
		},
		{
			name:       "empty profile list",
			target:     "/api/events/" + eventID,
			body:       `{"profiles":[]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantMsg:    domain.MsgProfilesRequired,
		},
		{
			name:       "bad date",
			target:     "/api/events/" + eventID,
			body:       `{"startDateTime":"31/12/2024"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantMsg:    domain.MsgInvalidDateTime,
		},
		{
			name:       "not found",
			target:     "/api/events/" + eventID,
			body:       `{"timezone":"UTC"}`,
			svcErr:     domain.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   helpers.ErrCodeNotFound,
			wantMsg:    domain.MsgEventNotFound,
		},
		{
			name:       "merged interval invalid",
			target:     "/api/events/" + eventID,
			body:       `{"endDateTime":"2024-01-01T10:00:00Z"}`,
			svcErr:     domain.NewValidationError(domain.MsgEndBeforeStart),
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantMsg:    domain.MsgEndBeforeStart,
		},
	}

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		for _, tt := range tests {
			t.Run(method+" "+tt.name, func(t *testing.T) {
				svc := &fakeEventService{view: sampleView(), err: tt.svcErr}
				ctrl := NewEventController(testLogger, svc, &fakeCalendar{})

				rr := serve(method, "/api/events/{eventID}", tt.target, []byte(tt.body), ctrl.UpdateEvent)

				require.Equal(t, tt.wantStatus, rr.Code)
				_, apiErr := decodeEnvelope(t, rr.Body)
				if tt.wantCode != "" {
					require.NotNil(t, apiErr)
					assert.Equal(t, tt.wantCode, apiErr.Code)
					assert.Contains(t, apiErr.Message, tt.wantMsg)
					return
				}
				require.Nil(t, apiErr)
				assert.Equal(t, eventID, svc.lastUpdateID)
				if tt.check != nil {
					tt.check(t, svc.lastUpdate)
				}
			})
		}
	}
}

func TestEventController_GetEvent(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"found", "/api/events/" + eventID, nil, http.StatusOK, ""},
		{"not found", "/api/events/" + eventID, domain.ErrNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
		{"malformed id", "/api/events/123", nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"store failure", "/api/events/" + eventID, errors.New("boom"), http.StatusInternalServerError, helpers.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{view: sampleView(), err: tt.svcErr}
			ctrl := NewEventController(testLogger, svc, &fakeCalendar{})

			rr := serve(http.MethodGet, "/api/events/{eventID}", tt.target, nil, ctrl.GetEvent)

			require.Equal(t, tt.wantStatus, rr.Code)
			data, apiErr := decodeEnvelope(t, rr.Body)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			var view domain.EventView
			require.NoError(t, json.Unmarshal(data, &view))
			assert.Equal(t, eventID, view.ID)
			assert.Equal(t, eventID, svc.lastGetID)
		})
	}
}

func TestEventController_ListEvents(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantFilter []string
	}{
		{"no filter", "", http.StatusOK, nil},
		{"comma list", "?profileIds=" + profileA + "," + profileB, http.StatusOK, []string{profileA, profileB}},
		{"repeated", "?profileIds=" + profileA + "&profileIds=" + profileB, http.StatusOK, []string{profileA, profileB}},
		{"malformed", "?profileIds=zzz", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{views: []*domain.EventView{sampleView()}}
			ctrl := NewEventController(testLogger, svc, &fakeCalendar{})

			rr := serve(http.MethodGet, "/api/events", "/api/events"+tt.query, nil, ctrl.ListEvents)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			data, apiErr := decodeEnvelope(t, rr.Body)
			require.Nil(t, apiErr)
			var views []domain.EventView
			require.NoError(t, json.Unmarshal(data, &views))
			assert.Len(t, views, 1)
			assert.Equal(t, tt.wantFilter, svc.lastFilter.ProfileIDs)
		})
	}
}

func TestEventController_ListEventLogs(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := &fakeEventService{changes: []*domain.ChangeLogEntry{
		{
			ID:      "log-1",
			EventID: eventID,
			Changes: []domain.FieldChange{
				{Field: domain.FieldTimezone, OldValue: "UTC", NewValue: "Europe/London", Timestamp: at},
			},
			CreatedAt: at,
		},
	}}
	ctrl := NewEventController(testLogger, svc, &fakeCalendar{})

	rr := serve(http.MethodGet, "/api/events/{eventID}/logs", "/api/events/"+eventID+"/logs", nil, ctrl.ListEventLogs)

	require.Equal(t, http.StatusOK, rr.Code)
	data, apiErr := decodeEnvelope(t, rr.Body)
	require.Nil(t, apiErr)
	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, eventID, raw[0]["eventId"])
	changes := raw[0]["changes"].([]any)
	first := changes[0].(map[string]any)
	assert.Equal(t, "timezone", first["field"])
	assert.Equal(t, "UTC", first["oldValue"])
	assert.Equal(t, "Europe/London", first["newValue"])
	assert.Equal(t, eventID, svc.lastChangesID)
}

func TestEventController_ExportCalendar(t *testing.T) {
	svc := &fakeEventService{views: []*domain.EventView{sampleView()}, view: sampleView()}
	cal := &fakeCalendar{}
	ctrl := NewEventController(testLogger, svc, cal)

	rr := serve(http.MethodGet, "/api/events/calendar.ics", "/api/events/calendar.ics?profileIds="+profileA, nil, ctrl.ExportCalendar)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "BEGIN:VCALENDAR")
	assert.Equal(t, []string{profileA}, svc.lastFilter.ProfileIDs)
	assert.Len(t, cal.events, 1)

	rr = serve(http.MethodGet, "/api/events/{eventID}/calendar.ics", "/api/events/"+eventID+"/calendar.ics", nil, ctrl.ExportEventCalendar)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), eventID+".ics")

	svc.err = domain.ErrNotFound
	rr = serve(http.MethodGet, "/api/events/{eventID}/calendar.ics", "/api/events/"+eventID+"/calendar.ics", nil, ctrl.ExportEventCalendar)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEventController_CanonicalisesIDs(t *testing.T) {
	bracedA := "{11111111-1111-1111-1111-111111111111}"
	urnB := "urn:uuid:22222222-2222-2222-2222-222222222222"
	upperEvent := "AAAAAAAA-AAAA-AAAA-AAAA-AAAAAAAAAAAA"

	t.Run("create", func(t *testing.T) {
		svc := &fakeEventService{view: sampleView()}
		ctrl := NewEventController(testLogger, svc, &fakeCalendar{})
		body := `{"profiles":["` + bracedA + `","` + urnB + `","` + profileA + `"],"timezone":"UTC","startDateTime":"2024-01-01T10:00:00Z","endDateTime":"2024-01-01T12:00:00Z"}`

		rr := serve(http.MethodPost, "/api/events", "/api/events", []byte(body), ctrl.CreateEvent)

		require.Equal(t, http.StatusCreated, rr.Code)
		require.NotNil(t, svc.lastCreate)
		assert.Equal(t, []string{profileA, profileB, profileA}, svc.lastCreate.ProfileIDs)
	})

	t.Run("update", func(t *testing.T) {
		svc := &fakeEventService{view: sampleView()}
		ctrl := NewEventController(testLogger, svc, &fakeCalendar{})
		body := `{"profiles":["22222222222222222222222222222222","11111111-1111-1111-1111-111111111111"]}`

		rr := serve(http.MethodPatch, "/api/events/{eventID}", "/api/events/"+upperEvent, []byte(body), ctrl.UpdateEvent)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, eventID, svc.lastUpdateID)
		require.NotNil(t, svc.lastUpdate.ProfileIDs)
		assert.Equal(t, []string{profileB, profileA}, *svc.lastUpdate.ProfileIDs)
	})

	t.Run("uppercase", func(t *testing.T) {
		svc := &fakeEventService{view: sampleView()}
		ctrl := NewEventController(testLogger, svc, &fakeCalendar{})
		body := `{"profiles":["AAAAAAAA-1111-1111-1111-111111111111"],"timezone":"UTC","startDateTime":"2024-01-01T10:00:00Z","endDateTime":"2024-01-01T12:00:00Z"}`

		rr := serve(http.MethodPost, "/api/events", "/api/events", []byte(body), ctrl.CreateEvent)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, []string{"aaaaaaaa-1111-1111-1111-111111111111"}, svc.lastCreate.ProfileIDs)
	})

	t.Run("filter", func(t *testing.T) {
		svc := &fakeEventService{}
		ctrl := NewEventController(testLogger, svc, &fakeCalendar{})

		rr := serve(http.MethodGet, "/api/events", "/api/events?profileIds=AAAAAAAA-1111-1111-1111-111111111111", nil, ctrl.ListEvents)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"aaaaaaaa-1111-1111-1111-111111111111"}, svc.lastFilter.ProfileIDs)
	})
}

// Canonical ids from the boundary match the lowercase ids the store returns.
func TestCanonicalIDsSatisfyReferenceCheck(t *testing.T) {
	svc := &fakeEventService{view: sampleView()}
	ctrl := NewEventController(testLogger, svc, &fakeCalendar{})
	body := `{"profiles":["AAAAAAAA-1111-1111-1111-111111111111"],"timezone":"UTC","startDateTime":"2024-01-01T10:00:00Z","endDateTime":"2024-01-01T12:00:00Z"}`

	rr := serve(http.MethodPost, "/api/events", "/api/events", []byte(body), ctrl.CreateEvent)
	require.Equal(t, http.StatusCreated, rr.Code)

	stored := []string{"aaaaaaaa-1111-1111-1111-111111111111"}
	assert.NoError(t, domain.ValidateReferences(svc.lastCreate.ProfileIDs, stored))
	assert.True(t, domain.SameIDSet(svc.lastCreate.ProfileIDs, stored))
}
