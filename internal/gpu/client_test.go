package gpu

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"interviewapi/internal/config"
	"interviewapi/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(video, eval string) *Client {
	return NewClient(config.GPUConfig{
		VideoServiceURL:      video,
		EvaluationServiceURL: eval,
		RequestTimeout:       5 * time.Second,
	}, nil)
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"face.JPG":  "image/jpeg",
		"face.jpeg": "image/jpeg",
		"face.png":  "image/png",
		"clip.mp4":  "video/mp4",
		"clip.avi":  "video/avi",
		"a.wav":     "audio/wav",
		"a.mp3":     "audio/mpeg",
		"notes.txt": "application/octet-stream",
		"noext":     "application/octet-stream",
	}
	for name, want := range tests {
		assert.Equal(t, want, ContentType(name), name)
	}
}

func TestCheckHealth(t *testing.T) {
	video := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"healthy","gpu":"A5000"}`))
	}))
	defer video.Close()
	eval := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer eval.Close()

	rep := newTestClient(video.URL, eval.URL).CheckHealth(context.Background())

	assert.False(t, rep.AllServicesHealthy)
	assert.True(t, rep.Services[ServiceVideo].Healthy)
	assert.Equal(t, "healthy", rep.Services[ServiceVideo].Status)
	assert.Equal(t, "HTTP 503", rep.Services[ServiceEvaluation].Status)

	eval.Close()
	rep = newTestClient(video.URL, eval.URL).CheckHealth(context.Background())
	assert.Equal(t, "error", rep.Services[ServiceEvaluation].Status)
	assert.NotEmpty(t, rep.Services[ServiceEvaluation].Error)
}

func TestGenerateVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate-video", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		audio := r.MultipartForm.File["audio_file"][0]
		face := r.MultipartForm.File["face_file"][0]
		assert.Equal(t, "answer.wav", audio.Filename)
		assert.Equal(t, "audio/wav", audio.Header.Get("Content-Type"))
		assert.Equal(t, "me.png", face.Filename)
		assert.Equal(t, "image/png", face.Header.Get("Content-Type"))
		assert.Equal(t, "sess-1", r.FormValue("session_id"))
		assert.Equal(t, "", r.FormValue("question_id"))

		f, _ := audio.Open()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "RIFF", string(b))

		_, _ = w.Write([]byte(`{"task_id":"v-1","video_filename":"v-1.mp4"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, srv.URL).GenerateVideo(context.Background(),
		Upload{Name: "1/x_answer.wav", Body: strings.NewReader("RIFF")},
		Upload{Name: "me.png", Body: strings.NewReader("PNG")},
		"sess-1", "")

	require.NoError(t, err)
	assert.Equal(t, "v-1.mp4", res["video_filename"])
}

func TestGenerateVideo_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("out of memory"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, srv.URL).GenerateVideo(context.Background(),
		Upload{Name: "a.wav", Body: strings.NewReader("x")},
		Upload{Name: "f.jpg", Body: strings.NewReader("y")}, "", "")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 500, se.Code)
	assert.Equal(t, "out of memory", se.Body)
	assert.Contains(t, err.Error(), "Video service error: 500")
}

func TestEvaluate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/evaluate", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		v := r.MultipartForm.File["video_file"][0]
		assert.Equal(t, "video/mp4", v.Header.Get("Content-Type"))

		var data map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("evaluation_data")), &data))
		assert.Equal(t, "F1", data["visa_type"])

		_, _ = w.Write([]byte(`{"overall_score":81.5}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, srv.URL).Evaluate(context.Background(),
		Upload{Name: "clip.mp4", Body: strings.NewReader("mp4")},
		map[string]any{"visa_type": "F1"})

	require.NoError(t, err)
	assert.Equal(t, 81.5, res["overall_score"])
}

func TestDownloadVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/download/v-1.mp4" {
			_, _ = w.Write([]byte("video-bytes"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dst, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	c := newTestClient(srv.URL, srv.URL)

	info, err := c.DownloadVideo(context.Background(), "v-1.mp4", dst, "videos/v-1.mp4")
	require.NoError(t, err)
	assert.Equal(t, int64(11), info.Size)
	assert.Equal(t, "video/mp4", info.ContentType)

	_, err = c.DownloadVideo(context.Background(), "missing.mp4", dst, "videos/missing.mp4")
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestCleanup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Path == "/cleanup/ok" {
			_, _ = w.Write([]byte(`{"deleted":2}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	res := newTestClient(srv.URL, srv.URL).Cleanup(context.Background(), []string{"ok", "missing"})

	require.Len(t, res, 2)
	assert.True(t, res[0].Success)
	assert.Equal(t, 2.0, res[0].Result["deleted"])
	assert.False(t, res[1].Success)
	assert.Equal(t, "HTTP 404", res[1].Error)
}
