package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mingle_server/models"
	"mingle_server/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nullStore struct{}

func (nullStore) FinalizeMatch(ctx context.Context, match models.FinalizedMatch) error {
	return nil
}

func newTestController() *MatchmakingController {
	clock := services.SystemClock()
	pool := services.NewWaitingPool()
	registry := services.NewConnectionRegistry(time.Minute, clock)
	dispatcher := services.NewNotificationDispatcher(registry)
	lifecycle := services.NewMatchLifecycle(pool, dispatcher, registry, nullStore{}, clock, 30*time.Second)
	pool.SetActiveChecker(lifecycle.IsActive)
	return NewMatchmakingController(pool, lifecycle, clock)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	request := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	recorder := httptest.NewRecorder()
	handler(recorder, request)
	return recorder
}

func enqueueBody(userID string) map[string]interface{} {
	return map[string]interface{}{
		"userId":    userID,
		"gender":    models.GenderFemale,
		"category":  models.CategoryPlatonic,
		"interests": []string{"chess", "music"},
	}
}

func TestHandleEnqueueAdmitsCandidate(t *testing.T) {
	controller := newTestController()

	recorder := postJSON(t, controller.HandleEnqueue, enqueueBody("alice"))
	require.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, float64(0), response["positionHint"])
	assert.True(t, controller.Pool.Contains("alice"))
}

func TestHandleEnqueueValidation(t *testing.T) {
	controller := newTestController()

	cases := map[string]map[string]interface{}{
		"missing user": {
			"category":  models.CategoryPlatonic,
			"interests": []string{"chess"},
		},
		"unknown category": {
			"userId":    "alice",
			"category":  "professional",
			"interests": []string{"chess"},
		},
		"no interests": {
			"userId":    "alice",
			"category":  models.CategoryPlatonic,
			"interests": []string{},
		},
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			recorder := postJSON(t, controller.HandleEnqueue, body)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
	assert.False(t, controller.Pool.Contains("alice"))
}

func TestHandleEnqueueDuplicateConflict(t *testing.T) {
	controller := newTestController()

	require.Equal(t, http.StatusOK, postJSON(t, controller.HandleEnqueue, enqueueBody("alice")).Code)
	assert.Equal(t, http.StatusConflict, postJSON(t, controller.HandleEnqueue, enqueueBody("alice")).Code)
}

func TestHandleRespondStaleIsIgnored(t *testing.T) {
	controller := newTestController()

	recorder := postJSON(t, controller.HandleRespond, map[string]interface{}{
		"userId":  "alice",
		"matchId": "no-such-match",
		"accept":  true,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Contains(t, response["message"], "ignored")
}

func TestHandleRespondValidation(t *testing.T) {
	controller := newTestController()

	recorder := postJSON(t, controller.HandleRespond, map[string]interface{}{"userId": "alice"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandleCancelDequeues(t *testing.T) {
	controller := newTestController()
	require.Equal(t, http.StatusOK, postJSON(t, controller.HandleEnqueue, enqueueBody("alice")).Code)

	recorder := postJSON(t, controller.HandleCancel, map[string]interface{}{"userId": "alice"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "dequeued", response["outcome"])
	assert.False(t, controller.Pool.Contains("alice"))
}

func TestHandleQueueStatus(t *testing.T) {
	controller := newTestController()
	require.Equal(t, http.StatusOK, postJSON(t, controller.HandleEnqueue, enqueueBody("alice")).Code)

	request := httptest.NewRequest(http.MethodGet, "/?userId=alice", nil)
	recorder := httptest.NewRecorder()
	controller.HandleQueueStatus(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, true, response["waiting"])
	assert.Equal(t, float64(0), response["positionHint"])
	assert.Equal(t, false, response["inMatch"])
}

func TestHandleQueueStatusRequiresUser(t *testing.T) {
	controller := newTestController()

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()
	controller.HandleQueueStatus(recorder, request)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandleGetMatchesEmpty(t *testing.T) {
	controller := newTestController()

	request := httptest.NewRequest(http.MethodGet, "/?userId=alice", nil)
	recorder := httptest.NewRecorder()
	controller.HandleGetMatches(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
}
