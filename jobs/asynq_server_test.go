package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	payloads []ReferenceWarmupPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueReferenceWarmup(_ context.Context, payload ReferenceWarmupPayload) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.payloads = append(f.payloads, payload)
	return &asynq.TaskInfo{ID: "task-1", Type: TaskReferenceWarmup}, nil
}

func jobsRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	return r
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	rr := httptest.NewRecorder()
	jobsRouter(NewHandler(nil, nil, nil)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rr.Body.String())
}

func TestJobsWarmupEnqueues(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	body := strings.NewReader(`{"days":2,"branch_code":"HN01"}`)
	rr := httptest.NewRecorder()
	jobsRouter(NewHandler(nil, enqueuer, nil)).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/warmup", body))

	require.Equal(t, http.StatusAccepted, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "task-1", resp["task_id"])
	assert.Equal(t, []ReferenceWarmupPayload{{Days: 2, BranchCode: "HN01"}}, enqueuer.payloads)
}

func TestJobsWarmupErrors(t *testing.T) {
	cases := []struct {
		name     string
		enqueuer WarmupEnqueuer
		body     string
		want     int
	}{
		{"not configured", nil, `{}`, http.StatusServiceUnavailable},
		{"bad json", &fakeEnqueuer{}, `{`, http.StatusBadRequest},
		{"negative days", &fakeEnqueuer{}, `{"days":-1}`, http.StatusBadRequest},
		{"duplicate", &fakeEnqueuer{err: asynq.ErrDuplicateTask}, `{}`, http.StatusConflict},
		{"redis down", &fakeEnqueuer{err: errors.New("dial tcp")}, `{}`, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/jobs/warmup", strings.NewReader(tc.body))
			jobsRouter(NewHandler(nil, tc.enqueuer, nil)).ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestNewReferenceWarmupTask(t *testing.T) {
	task, err := NewReferenceWarmupTask(ReferenceWarmupPayload{Days: 1, MaxOrders: 10})
	require.NoError(t, err)
	assert.Equal(t, TaskReferenceWarmup, task.Type())
	assert.JSONEq(t, `{"days":1,"max_orders":10}`, string(task.Payload()))
}
