package runpod

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"interviewapi/internal/config"
	"interviewapi/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = config.RunPodConfig{VideoTemplateID: "video-tpl", EvalTemplateID: "eval-tpl", GPUTypeID: "NVIDIA RTX A5000"}

func TestManager_StartStopSimulated(t *testing.T) {
	m := NewManager(NewSimulatedAPI(), testCfg, 2, zerolog.Nop())
	ctx := context.Background()

	st, err := m.Status(ctx, model.TaskVideoGeneration)
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, st)

	id, err := m.StartServer(ctx, model.TaskVideoGeneration)
	require.NoError(t, err)
	assert.Contains(t, id, "pod_video_generation_")

	again, err := m.StartServer(ctx, model.TaskVideoGeneration)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, 1, m.Running())

	st, err = m.Status(ctx, model.TaskVideoGeneration)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, st)

	ok, err := m.StopServer(ctx, model.TaskVideoGeneration)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", m.PodID(model.TaskVideoGeneration))

	ok, err = m.StopServer(ctx, model.TaskVideoGeneration)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManager_MaxInstances(t *testing.T) {
	m := NewManager(NewSimulatedAPI(), testCfg, 1, zerolog.Nop())
	ctx := context.Background()

	_, err := m.StartServer(ctx, model.TaskVideoGeneration)
	require.NoError(t, err)

	_, err = m.StartServer(ctx, model.TaskEvaluation)
	assert.ErrorIs(t, err, ErrMaxInstances)

	_, err = m.StartServer(ctx, "tts")
	assert.ErrorContains(t, err, "no template")
}

type failingAPI struct{ SimulatedAPI }

func (f *failingAPI) CreatePod(context.Context, CreatePodRequest) (*Pod, error) {
	return nil, errors.New("quota")
}

func TestManager_StartError(t *testing.T) {
	m := NewManager(&failingAPI{}, testCfg, 0, zerolog.Nop())

	_, err := m.StartServer(context.Background(), model.TaskEvaluation)

	assert.ErrorContains(t, err, "start evaluation server: quota")
	assert.Equal(t, 0, m.Running())
}

func TestClient(t *testing.T) {
	var created CreatePodRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/pods":
			_ = json.NewDecoder(r.Body).Decode(&created)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "p1", "desiredStatus": "RUNNING"})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/pods/p1":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "p1", "desiredStatus": "EXITED"})
		case r.Method == http.MethodPost && r.URL.Path == "/v1/pods/p1/stop":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/v1/pods/gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/v1/", "key", 100, nil)
	ctx := context.Background()

	p, err := c.CreatePod(ctx, CreatePodRequest{Name: "evaluation", TemplateID: "eval-tpl", GPUTypeIDs: []string{"A5000"}, GPUCount: 1})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "eval-tpl", created.TemplateID)

	p, err = c.GetPod(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "EXITED", p.Status)

	assert.NoError(t, c.StopPod(ctx, "p1"))

	_, err = c.GetPod(ctx, "gone")
	assert.ErrorIs(t, err, ErrPodNotFound)

	err = c.StopPod(ctx, "other")
	assert.ErrorContains(t, err, "status 500: boom")
}

func TestManager_StatusFromAPI(t *testing.T) {
	api := NewSimulatedAPI()
	m := NewManager(api, testCfg, 0, zerolog.Nop())
	ctx := context.Background()

	id, err := m.StartServer(ctx, model.TaskEvaluation)
	require.NoError(t, err)
	require.NoError(t, api.StopPod(ctx, id))

	st, err := m.Status(ctx, model.TaskEvaluation)
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, st)
	assert.Empty(t, m.PodID(model.TaskEvaluation))
}

func TestManager_RestartsPodExitedOutside(t *testing.T) {
	api := NewSimulatedAPI()
	tick := time.Unix(1700000000, 0)
	api.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	m := NewManager(api, testCfg, 1, zerolog.Nop())
	ctx := context.Background()

	first, err := m.StartServer(ctx, model.TaskVideoGeneration)
	require.NoError(t, err)
	require.NoError(t, api.StopPod(ctx, first))

	st, err := m.Status(ctx, model.TaskVideoGeneration)
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, st)
	assert.Equal(t, 0, m.Running())

	second, err := m.StartServer(ctx, model.TaskVideoGeneration)
	require.NoError(t, err, "an exited pod must not count toward max instances")
	assert.NotEqual(t, first, second)

	st, err = m.Status(ctx, model.TaskVideoGeneration)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, st)
	assert.Equal(t, 1, m.Running())
}

func TestNewAPI(t *testing.T) {
	_, sim := NewAPI(config.RunPodConfig{}, 5).(*SimulatedAPI)
	assert.True(t, sim)

	_, rest := NewAPI(config.RunPodConfig{APIKey: "k", APIURL: "https://rest.runpod.io/v1"}, 5).(*Client)
	assert.True(t, rest)
}
