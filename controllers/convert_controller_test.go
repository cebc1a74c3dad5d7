package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/convgate/convgate/config"
	"github.com/convgate/convgate/converters"
	"github.com/convgate/convgate/storage"
	"github.com/convgate/convgate/utils"
	"github.com/convgate/convgate/workers"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := utils.InitLogger(config.AppConfig{LogLevel: "error"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// newTestRouter wires the conversion surface with a throwaway scratch dir and
// a running worker pool. Routes mirror the production layout without the
// access-log and rate-limit middleware.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	cfg := config.AppConfig{
		MaxUploadMB:      1,
		EngineTimeoutSec: 30,
		WorkerCount:      2,
		QueueSize:        8,
		PhoneRegion:      "US",
	}
	store, err := storage.NewTempStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewTempStore: %v", err)
	}

	tracker := workers.NewTracker()
	pool := workers.NewPool(cfg.WorkerCount, cfg.QueueSize)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(cancel)

	runner := workers.NewRunner(tracker, pool, converters.Options{
		Store:         store,
		EngineTimeout: cfg.EngineTimeout(),
		PhoneRegion:   cfg.PhoneRegion,
	})
	cc := NewConvertController(cfg, store, tracker, runner)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/convert", cc.Convert)
	api.GET("/status/:id", cc.Status)
	r.GET("/download/:name", cc.Download)
	return r
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func postConvert(t *testing.T, r *gin.Engine, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func pollUntilDone(t *testing.T, r *gin.Engine, jobID string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/status/"+jobID, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status poll = %d: %s", rec.Code, rec.Body.String())
		}
		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("status body: %v", err)
		}
		switch resp["status"] {
		case "done", "error":
			return resp
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func TestConvert_JSONToCSVEndToEnd(t *testing.T) {
	r := newTestRouter(t)

	rec := postConvert(t, r, "data.json", `[{"a":"1","b":"2"}]`,
		map[string]string{"target": "csv-from-json"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("convert = %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("accept body: %v", err)
	}
	if accepted.JobID == "" || accepted.Status != "processing" {
		t.Fatalf("accept body = %+v", accepted)
	}

	resp := pollUntilDone(t, r, accepted.JobID)
	if resp["status"] != "done" {
		t.Fatalf("job ended as %v: %v", resp["status"], resp["error"])
	}
	if resp["percent"] != float64(100) {
		t.Fatalf("finished percent = %v", resp["percent"])
	}
	filename, _ := resp["filename"].(string)
	if filename == "" {
		t.Fatalf("missing result filename: %v", resp)
	}
	if resp["download"] != "/download/"+filename {
		t.Fatalf("download link = %v", resp["download"])
	}

	dlReq := httptest.NewRequest(http.MethodGet, "/download/"+filename, nil)
	dlRec := httptest.NewRecorder()
	r.ServeHTTP(dlRec, dlReq)
	if dlRec.Code != http.StatusOK {
		t.Fatalf("download = %d", dlRec.Code)
	}
	if got := dlRec.Body.String(); got != "a,b\n1,2\n" {
		t.Fatalf("downloaded CSV = %q", got)
	}
}

func TestConvert_SubtitleEndToEnd(t *testing.T) {
	r := newTestRouter(t)

	srt := "1\n00:00:01,000 --> 00:00:02,000\nHello\n"
	rec := postConvert(t, r, "movie.srt", srt, map[string]string{"target": "vtt"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("convert = %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID string `json:"job_id"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &accepted)

	resp := pollUntilDone(t, r, accepted.JobID)
	if resp["status"] != "done" {
		t.Fatalf("job ended as %v: %v", resp["status"], resp["error"])
	}
}

func TestConvert_MissingFile(t *testing.T) {
	r := newTestRouter(t)

	rec := postConvert(t, r, "", "", map[string]string{"target": "csv"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body: %v", err)
	}
	if resp["detail"] == "" {
		t.Fatalf("error body missing detail: %s", rec.Body.String())
	}
}

func TestConvert_MissingTarget(t *testing.T) {
	r := newTestRouter(t)

	rec := postConvert(t, r, "a.json", "{}", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
}

func TestConvert_SelfConversionRejected(t *testing.T) {
	r := newTestRouter(t)

	rec := postConvert(t, r, "photo.png", "not really a png",
		map[string]string{"target": "png"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestConvert_UnsupportedPairingRejected(t *testing.T) {
	r := newTestRouter(t)

	rec := postConvert(t, r, "photo.png", "x", map[string]string{"target": "mp3"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestConvert_OversizedUploadRejected(t *testing.T) {
	r := newTestRouter(t)

	big := bytes.Repeat([]byte("a"), 1<<20+1)
	rec := postConvert(t, r, "big.json", string(big),
		map[string]string{"target": "csv-from-json"})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("code = %d, want 413: %s", rec.Code, rec.Body.String())
	}
}

func TestStatus_UnknownJob(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status/does-not-exist", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", rec.Code)
	}
}

func TestDownload_UnknownFile(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/download/nope.csv", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", rec.Code)
	}
}

func TestConvert_FailedJobReportsError(t *testing.T) {
	r := newTestRouter(t)

	// classifies as structured data but the payload is not valid JSON
	rec := postConvert(t, r, "broken.json", "{not json",
		map[string]string{"target": "csv-from-json"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("convert = %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID string `json:"job_id"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &accepted)

	resp := pollUntilDone(t, r, accepted.JobID)
	if resp["status"] != "error" {
		t.Fatalf("job ended as %v, want error", resp["status"])
	}
	if detail, _ := resp["error"].(string); detail == "" {
		t.Fatal("failed job must surface a diagnostic detail")
	}
}
