// Package gpu talks to the video generation and evaluation services running on GPU pods.
package gpu

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"interviewapi/internal/config"
	"interviewapi/internal/storage"
)

// Service names used in health reports.
const (
	ServiceVideo      = "video_generation"
	ServiceEvaluation = "evaluation_agent"
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".mp4":  "video/mp4",
	".avi":  "video/avi",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
}

// ContentType maps a filename extension to the MIME type the GPU services expect.
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// StatusError is returned when a GPU service answers with a non-200 status.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s service error: %d: %s", e.Service, e.Code, e.Body)
}

// Upload is a named stream sent as a multipart file part.
type Upload struct {
	Name string
	Body io.Reader
}

// ServiceHealth is the probe result of one service.
type ServiceHealth struct {
	Healthy bool           `json:"healthy"`
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// HealthReport aggregates both services.
type HealthReport struct {
	AllServicesHealthy bool                     `json:"all_services_healthy"`
	Services           map[string]ServiceHealth `json:"services"`
}

// CleanupResult is the outcome of one cleanup call.
type CleanupResult struct {
	TaskID  string         `json:"task_id"`
	Success bool           `json:"success"`
	Result  map[string]any `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Client is a rate limited client for both GPU services.
type Client struct {
	videoURL string
	evalURL  string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient builds a client from cfg. transport may be nil.
func NewClient(cfg config.GPUConfig, transport http.RoundTripper) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Client{
		videoURL: strings.TrimRight(cfg.VideoServiceURL, "/"),
		evalURL:  strings.TrimRight(cfg.EvaluationServiceURL, "/"),
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: otelhttp.NewTransport(transport),
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

// CheckHealth probes both services. Failures are reported, not returned.
func (c *Client) CheckHealth(ctx context.Context) HealthReport {
	services := map[string]ServiceHealth{
		ServiceVideo:      c.checkOne(ctx, c.videoURL+"/health"),
		ServiceEvaluation: c.checkOne(ctx, c.evalURL+"/health"),
	}
	all := true
	for _, s := range services {
		all = all && s.Healthy
	}
	return HealthReport{AllServicesHealthy: all, Services: services}
}

func (c *Client) checkOne(ctx context.Context, u string) ServiceHealth {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ServiceHealth{Status: "error", Error: err.Error()}
	}
	resp, err := c.send(req)
	if err != nil {
		return ServiceHealth{Status: "error", Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ServiceHealth{
			Status: fmt.Sprintf("HTTP %d", resp.StatusCode),
			Error:  fmt.Sprintf("Service returned status %d", resp.StatusCode),
		}
	}
	var details map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&details)
	status, _ := details["status"].(string)
	if status == "" {
		status = "unknown"
	}
	return ServiceHealth{Healthy: true, Status: status, Details: details}
}

type filePart struct {
	field       string
	upload      Upload
	contentType string
}

// postMultipart streams the form through a pipe so uploads are never buffered whole.
func (c *Client) postMultipart(ctx context.Context, service, u string, files []filePart, fields map[string]string, jsonFields map[string]any) (map[string]any, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			for _, f := range files {
				h := make(textproto.MIMEHeader)
				h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, path.Base(f.upload.Name)))
				h.Set("Content-Type", f.contentType)
				w, err := mw.CreatePart(h)
				if err != nil {
					return err
				}
				if _, err := io.Copy(w, f.upload.Body); err != nil {
					return err
				}
			}
			for k, v := range fields {
				if err := mw.WriteField(k, v); err != nil {
					return err
				}
			}
			for k, v := range jsonFields {
				b, err := json.Marshal(v)
				if err != nil {
					return err
				}
				h := make(textproto.MIMEHeader)
				h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, k))
				h.Set("Content-Type", "application/json")
				w, err := mw.CreatePart(h)
				if err != nil {
					return err
				}
				if _, err := w.Write(b); err != nil {
					return err
				}
			}
			return mw.Close()
		}()
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.send(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Service: service, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", service, err)
	}
	return out, nil
}

// GenerateVideo posts the audio and face inputs to /generate-video.
func (c *Client) GenerateVideo(ctx context.Context, audio, face Upload, sessionID, questionID string) (map[string]any, error) {
	fields := map[string]string{}
	if sessionID != "" {
		fields["session_id"] = sessionID
	}
	if questionID != "" {
		fields["question_id"] = questionID
	}
	return c.postMultipart(ctx, "Video", c.videoURL+"/generate-video", []filePart{
		{field: "audio_file", upload: audio, contentType: "audio/wav"},
		{field: "face_file", upload: face, contentType: ContentType(face.Name)},
	}, fields, nil)
}

// Evaluate posts the interview video and context to /evaluate.
func (c *Client) Evaluate(ctx context.Context, video Upload, data map[string]any) (map[string]any, error) {
	if data == nil {
		data = map[string]any{}
	}
	return c.postMultipart(ctx, "Evaluation", c.evalURL+"/evaluate", []filePart{
		{field: "video_file", upload: video, contentType: "video/mp4"},
	}, nil, map[string]any{"evaluation_data": data})
}

// DownloadVideo streams a generated video into dst under key.
func (c *Client) DownloadVideo(ctx context.Context, name string, dst storage.Storage, key string) (storage.ObjectInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.videoURL+"/download/"+url.PathEscape(name), nil)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	resp, err := c.send(req)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return storage.ObjectInfo{}, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}
	return dst.Put(ctx, key, resp.Body, storage.PutObjectOptions{
		Size:        resp.ContentLength,
		ContentType: ContentType(name),
	})
}

// Cleanup asks the video service to delete temporary files of each task.
func (c *Client) Cleanup(ctx context.Context, taskIDs []string) []CleanupResult {
	out := make([]CleanupResult, 0, len(taskIDs))
	for _, id := range taskIDs {
		out = append(out, c.cleanupOne(ctx, id))
	}
	return out
}

func (c *Client) cleanupOne(ctx context.Context, taskID string) CleanupResult {
	res := CleanupResult{TaskID: taskID}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.videoURL+"/cleanup/"+url.PathEscape(taskID), nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	resp, err := c.send(req)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return res
	}
	_ = json.NewDecoder(resp.Body).Decode(&res.Result)
	res.Success = true
	return res
}
