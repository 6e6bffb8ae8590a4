package a2a

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

	"github.com/BerylCAtieno/persona-schedule-generator/internal/models"
	"github.com/BerylCAtieno/persona-schedule-generator/internal/schema"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	profile     string
	profileErr  error
	events      models.EventSet
	eventsErr   error
	schedule    string
	scheduleErr error

	guidance  string
	persona   string
	startDate string
	endDate   string
}

func (f *fakeGenerator) GenerateProfile(_ context.Context, guidance string) (string, error) {
	f.guidance = guidance
	return f.profile, f.profileErr
}

func (f *fakeGenerator) ProposeEvents(_ context.Context, profile string) (models.EventSet, error) {
	f.persona = profile
	return f.events, f.eventsErr
}

func (f *fakeGenerator) GenerateSchedule(_ context.Context, persona, startDate, endDate string) (string, error) {
	f.persona = persona
	f.startDate = startDate
	f.endDate = endDate
	return f.schedule, f.scheduleErr
}

const scheduleAnswer = `{"schedule": [{"start_time": "2024-01-05 09:00:00", "end_time": "2024-01-05 10:00:00", "event": "Lecture", "address": "405 Hilgard Ave, Los Angeles, CA 90095", "latitude": 34.0689, "longitude": -118.4452}]}`

func newTestServer(gen *fakeGenerator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewA2AHandler(gen, log)
	h.now = func() time.Time { return time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC) }
	return NewRouter(h, log)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func rpcBody(id interface{}, method string, parts ...MessagePart) map[string]interface{} {
	return map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params": MessageParams{
			Message: A2AMessage{Kind: "message", Role: RoleUser, Parts: parts},
		},
	}
}

type taskResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  *TaskResult   `json:"result"`
	Error   *JSONRPCError `json:"error"`
}

func decodeTask(t *testing.T, w *httptest.ResponseRecorder) taskResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code)
	var resp taskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleGenerator(t *testing.T) {
	t.Run("Message send generates profile then schedule", func(t *testing.T) {
		gen := &fakeGenerator{profile: "Name: Mei Lin. Age: 23.", schedule: scheduleAnswer}
		router := newTestServer(gen)

		w := doJSON(t, router, http.MethodPost, "/a2a/generator", rpcBody("req-1", "message/send",
			TextPart("<p>A 23-year-old Asian female</p>"),
			DataPart(map[string]interface{}{"start_date": "2024-01-08", "end_date": "2024-01-14"}),
		))

		resp := decodeTask(t, w)
		require.Nil(t, resp.Error)
		require.NotNil(t, resp.Result)
		assert.Equal(t, "req-1", resp.ID)
		assert.Equal(t, "req-1", resp.Result.ID)
		assert.Equal(t, StateCompleted, resp.Result.Status.State)

		assert.Equal(t, "A 23-year-old Asian female", gen.guidance)
		assert.Equal(t, "Name: Mei Lin. Age: 23.", gen.persona)
		assert.Equal(t, "2024-01-08", gen.startDate)
		assert.Equal(t, "2024-01-14", gen.endDate)

		require.Len(t, resp.Result.Artifacts, 2)
		assert.Equal(t, ArtifactProfile, resp.Result.Artifacts[0].Name)
		assert.Equal(t, "Name: Mei Lin. Age: 23.", resp.Result.Artifacts[0].Parts[0].Text)
		assert.Equal(t, ArtifactSchedule, resp.Result.Artifacts[1].Name)
		assert.Equal(t, scheduleAnswer, resp.Result.Artifacts[1].Parts[0].Text)
	})

	t.Run("Missing dates default to a week from today", func(t *testing.T) {
		gen := &fakeGenerator{profile: "p", schedule: "s"}
		router := newTestServer(gen)

		w := doJSON(t, router, http.MethodPost, "/a2a/generator", rpcBody(7, "agent/task", TextPart("A retired teacher")))

		resp := decodeTask(t, w)
		require.NotNil(t, resp.Result)
		assert.Equal(t, "7", resp.Result.ID)
		assert.Equal(t, StateCompleted, resp.Result.Status.State)
		assert.Equal(t, "2024-01-05", gen.startDate)
		assert.Equal(t, "2024-01-11", gen.endDate)
	})

	t.Run("Given persona skips profile generation", func(t *testing.T) {
		gen := &fakeGenerator{profileErr: errors.New("must not be called"), schedule: "s"}
		router := newTestServer(gen)

		w := doJSON(t, router, http.MethodPost, "/a2a/generator", rpcBody("r", "message/send",
			DataPart(map[string]interface{}{"persona": "Name: Ana.", "start_date": "2024-02-01", "end_date": "2024-02-02"}),
		))

		resp := decodeTask(t, w)
		assert.Equal(t, StateCompleted, resp.Result.Status.State)
		assert.Equal(t, "Name: Ana.", gen.persona)
		assert.Empty(t, gen.guidance)
	})

	t.Run("History data part uses the latest user text", func(t *testing.T) {
		gen := &fakeGenerator{profile: "p", schedule: "s"}
		router := newTestServer(gen)

		history := []map[string]interface{}{
			{"kind": "text", "text": "A nurse in Houston"},
			{"kind": "text", "text": "Generating your persona..."},
			{"kind": "text", "text": "..."},
		}
		w := doJSON(t, router, http.MethodPost, "/a2a/generator", rpcBody("r", "message/send", DataPart(history)))

		resp := decodeTask(t, w)
		assert.Equal(t, StateCompleted, resp.Result.Status.State)
		assert.Equal(t, "A nurse in Houston", gen.guidance)
	})

	t.Run("Empty message is a failed task", func(t *testing.T) {
		router := newTestServer(&fakeGenerator{})

		w := doJSON(t, router, http.MethodPost, "/a2a/generator", rpcBody("r", "message/send", TextPart("   ")))

		resp := decodeTask(t, w)
		require.NotNil(t, resp.Result)
		assert.Equal(t, StateFailed, resp.Result.Status.State)
	})

	t.Run("Bad dates are a failed task", func(t *testing.T) {
		router := newTestServer(&fakeGenerator{})

		for _, dates := range []map[string]interface{}{
			{"start_date": "05/01/2024"},
			{"start_date": "2024-01-10", "end_date": "2024-01-01"},
		} {
			w := doJSON(t, router, http.MethodPost, "/a2a/generator", rpcBody("r", "message/send", TextPart("x"), DataPart(dates)))
			resp := decodeTask(t, w)
			assert.Equal(t, StateFailed, resp.Result.Status.State)
		}
	})

	t.Run("Generation error is a failed task", func(t *testing.T) {
		gen := &fakeGenerator{profile: "p", scheduleErr: &schema.ValidationError{
			Schema:     "EventSet",
			Violations: []schema.Violation{{Field: "event", Description: "event is required"}},
		}}
		router := newTestServer(gen)

		w := doJSON(t, router, http.MethodPost, "/a2a/generator", rpcBody("r", "message/send", TextPart("x")))

		resp := decodeTask(t, w)
		assert.Equal(t, StateFailed, resp.Result.Status.State)
		assert.Contains(t, resp.Result.Status.Message.Parts[0].Text, "event is required")
	})

	t.Run("Direct message without wrapper", func(t *testing.T) {
		gen := &fakeGenerator{profile: "p", schedule: "s"}
		router := newTestServer(gen)

		w := doJSON(t, router, http.MethodPost, "/a2a/generator", MessageParams{
			Message: A2AMessage{Kind: "message", Role: RoleUser, Parts: []MessagePart{TextPart("A chef")}},
		})

		resp := decodeTask(t, w)
		require.NotNil(t, resp.Result)
		assert.Equal(t, StateCompleted, resp.Result.Status.State)
		assert.Equal(t, "A chef", gen.guidance)
	})

	rpcErrors := []struct {
		name string
		body interface{}
		code int
	}{
		{"Invalid JSON", `{"jsonrpc": `, CodeParseError},
		{"Wrong version", map[string]interface{}{"jsonrpc": "1.0", "id": "r", "method": "message/send"}, CodeInvalidRequest},
		{"Unknown method", map[string]interface{}{"jsonrpc": "2.0", "id": "r", "method": "tasks/cancel"}, CodeMethodNotFound},
		{"Missing params", map[string]interface{}{"jsonrpc": "2.0", "id": "r", "method": "message/send"}, CodeInvalidParams},
		{"Params of the wrong shape", map[string]interface{}{"jsonrpc": "2.0", "id": "r", "method": "message/send", "params": []int{1}}, CodeInvalidParams},
		{"Empty object", `{}`, CodeParseError},
	}
	for _, tc := range rpcErrors {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestServer(&fakeGenerator{})

			w := doJSON(t, router, http.MethodPost, "/a2a/generator", tc.body)

			resp := decodeTask(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.code, resp.Error.Code)
			assert.Nil(t, resp.Result)
		})
	}
}

func TestRESTEndpoints(t *testing.T) {
	t.Run("Profile", func(t *testing.T) {
		gen := &fakeGenerator{profile: "Name: Mei Lin."}
		router := newTestServer(gen)

		w := doJSON(t, router, http.MethodPost, "/v1/profile", ProfileRequest{Guidance: "A 23-year-old Asian female"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp ProfileResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Name: Mei Lin.", resp.Profile)
		assert.Equal(t, "A 23-year-old Asian female", gen.guidance)
	})

	t.Run("Profile requires guidance", func(t *testing.T) {
		w := doJSON(t, newTestServer(&fakeGenerator{}), http.MethodPost, "/v1/profile", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Profile upstream failure is a bad gateway", func(t *testing.T) {
		gen := &fakeGenerator{profileErr: errors.New("invalid api key")}
		w := doJSON(t, newTestServer(gen), http.MethodPost, "/v1/profile", ProfileRequest{Guidance: "x"})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "invalid api key")
	})

	t.Run("Events", func(t *testing.T) {
		gen := &fakeGenerator{events: models.EventSet{Event: []string{"Lecture", "Gym"}}}
		w := doJSON(t, newTestServer(gen), http.MethodPost, "/v1/events", EventsRequest{Profile: "p"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.EventSet
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"Lecture", "Gym"}, resp.Event)
	})

	t.Run("Events validation failure is unprocessable", func(t *testing.T) {
		gen := &fakeGenerator{eventsErr: &schema.ValidationError{
			Schema:     "EventSet",
			Violations: []schema.Violation{{Field: "event", Description: "event is required"}},
		}}
		w := doJSON(t, newTestServer(gen), http.MethodPost, "/v1/events", EventsRequest{Profile: "p"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "violations")
	})

	t.Run("Schedule from guidance with validation", func(t *testing.T) {
		gen := &fakeGenerator{profile: "p", schedule: scheduleAnswer}
		router := newTestServer(gen)

		w := doJSON(t, router, http.MethodPost, "/v1/schedule", ScheduleRequest{
			Guidance: "A student", StartDate: "2024-01-05", EndDate: "2024-01-11", Validate: true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Persona  string                 `json:"persona"`
			Schedule string                 `json:"schedule"`
			Entries  []models.ScheduleEntry `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "p", resp.Persona)
		assert.Equal(t, scheduleAnswer, resp.Schedule)
		require.Len(t, resp.Entries, 1)
		assert.Equal(t, "Lecture", resp.Entries[0].Event)
	})

	t.Run("Schedule is returned raw without validation", func(t *testing.T) {
		gen := &fakeGenerator{schedule: "not json"}
		w := doJSON(t, newTestServer(gen), http.MethodPost, "/v1/schedule", ScheduleRequest{
			Persona: "p", StartDate: "2024-01-05", EndDate: "2024-01-11",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "not json")
		assert.NotContains(t, w.Body.String(), "entries")
	})

	t.Run("Schedule validation failure", func(t *testing.T) {
		gen := &fakeGenerator{schedule: "not json"}
		w := doJSON(t, newTestServer(gen), http.MethodPost, "/v1/schedule", ScheduleRequest{
			Persona: "p", StartDate: "2024-01-05", EndDate: "2024-01-11", Validate: true,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	badSchedules := []struct {
		name string
		req  ScheduleRequest
	}{
		{"No persona or guidance", ScheduleRequest{StartDate: "2024-01-05", EndDate: "2024-01-11"}},
		{"Bad date format", ScheduleRequest{Persona: "p", StartDate: "Jan 5", EndDate: "2024-01-11"}},
		{"Missing end date", ScheduleRequest{Persona: "p", StartDate: "2024-01-05"}},
		{"End before start", ScheduleRequest{Persona: "p", StartDate: "2024-01-11", EndDate: "2024-01-05"}},
	}
	for _, tc := range badSchedules {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, newTestServer(&fakeGenerator{}), http.MethodPost, "/v1/schedule", tc.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestServiceEndpoints(t *testing.T) {
	router := newTestServer(&fakeGenerator{})

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/.well-known/agent.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var card map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	assert.Equal(t, "Persona Schedule Generator", card["name"])
}
