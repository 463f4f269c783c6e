package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnalab/design-evolution/internal/config"
	"github.com/dnalab/design-evolution/internal/domain"
	"github.com/dnalab/design-evolution/internal/mocks"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "debug"},
		LLM: config.LLMConfig{
			GeminiAPIKey:    "test-key",
			PlanningModel:   "plan-model",
			ImageModel:      "image-model",
			TranscribeModel: "transcribe-model",
			ImageWidth:      1024,
			ImageHeight:     1024,
		},
		Retry:     config.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond},
		Artifacts: config.ArtifactsConfig{Dir: t.TempDir(), MaxCount: 100},
		Task:      config.TaskConfig{RenderConcurrency: 9},
		API:       config.APIConfig{SubmitRatePerSecond: 100, SubmitBurst: 100},
	}
}

func newTestApp(t *testing.T, cfg *config.Config, gateway *mocks.MockGateway) (*application, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := newApplicationWithGateway(cfg, logger, gateway)
	require.NoError(t, err)

	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(func() {
		srv.Close()
		app.cleanup()
	})
	return app, srv
}

func getTask(t *testing.T, srv *httptest.Server, id string) domain.Task {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/status/" + id)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var task domain.Task
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&task))
	return task
}

func TestFullRoundOverHTTP(t *testing.T) {
	t.Parallel()

	gateway := mocks.NewMockGatewayWithPlan(mocks.SamplePlan(7, 2), pngBytes, "image/png")
	_, srv := newTestApp(t, testConfig(t), gateway)

	body := `{"feedback":"make it sharper","state":{"round":2,"design_summary":"wedge"}}`
	resp, err := http.Post(srv.URL+"/api/feedback", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var submitted struct {
		TaskID string `json:"task_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	require.NotEmpty(t, submitted.TaskID)
	assert.Equal(t, "/api/status/"+submitted.TaskID, resp.Header.Get("Location"))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-Id"))

	var task domain.Task
	require.Eventually(t, func() bool {
		task = getTask(t, srv, submitted.TaskID)
		return task.Status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, domain.TaskStatusCompleted, task.Status, task.Error)
	assert.Equal(t, 3, task.Round)
	assert.Equal(t, "The Cyber-Minimalist", task.UpdatedProfile.Summary)
	require.Len(t, task.Images, 9)

	imgResp, err := http.Get(srv.URL + task.Images[0].URL)
	require.NoError(t, err)
	defer func() { _ = imgResp.Body.Close() }()
	assert.Equal(t, http.StatusOK, imgResp.StatusCode)
	assert.Equal(t, "image/png", imgResp.Header.Get("Content-Type"))
	data, err := io.ReadAll(imgResp.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	_, srv := newTestApp(t, testConfig(t), &mocks.MockGateway{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}

func TestRouter_UnknownTaskAndImage(t *testing.T) {
	t.Parallel()

	_, srv := newTestApp(t, testConfig(t), &mocks.MockGateway{})

	resp, err := http.Get(srv.URL + "/api/status/does-not-exist")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/images/missing_0_20260101_000000_000000.png")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_SubmitRateLimited(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.API.SubmitRatePerSecond = 0.001
	cfg.API.SubmitBurst = 1
	gateway := mocks.NewMockGatewayWithPlan(mocks.SamplePlan(1, 0), pngBytes, "image/png")
	_, srv := newTestApp(t, cfg, gateway)

	post := func() *http.Response {
		resp, err := http.Post(srv.URL+"/api/feedback", "application/json",
			bytes.NewBufferString(`{"feedback":"again"}`))
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp
	}

	assert.Equal(t, http.StatusAccepted, post().StatusCode)
	limited := post()
	assert.Equal(t, http.StatusTooManyRequests, limited.StatusCode)
	assert.NotEmpty(t, limited.Header.Get("Retry-After"))

	// polling is not limited
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_StaticDir(t *testing.T) {
	t.Parallel()

	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>dna</h1>"), 0o600))

	cfg := testConfig(t)
	cfg.Server.StaticDir = static
	_, srv := newTestApp(t, cfg, &mocks.MockGateway{})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<h1>dna</h1>")
}

func TestNewApplicationWithGateway_BadArtifactDir(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	cfg := testConfig(t)
	cfg.Artifacts.Dir = filepath.Join(file, "images")
	_, err := newApplicationWithGateway(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), &mocks.MockGateway{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifact store")
}
