package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/screenlens/internal/engine"
	"github.com/ivlev/screenlens/internal/ocr"
	"github.com/ivlev/screenlens/internal/rules"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAnalyzer struct {
	err      error
	lastOpts engine.Options
	lastSize image.Point
}

func (f *fakeAnalyzer) Analyze(_ context.Context, img image.Image, opts engine.Options) (*engine.Result, error) {
	f.lastOpts = opts
	f.lastSize = img.Bounds().Size()
	if f.err != nil {
		return nil, f.err
	}
	return &engine.Result{
		Meta:          engine.Meta{AnalysisID: "abc", Width: img.Bounds().Dx(), Height: img.Bounds().Dy()},
		Predicates:    rules.Predicates{HasText: true},
		EligibleTasks: rules.TextTasks,
		Rationale:     map[string][]rules.Task{"has_text_rules": rules.TextTasks},
	}, nil
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 12, 7))))
	return buf.Bytes()
}

func newTestServer(a Analyzer, cfg Config) *Server {
	return New(cfg, a, rules.DefaultRules(), quietLogger())
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeAnalyzer{}, Config{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAnalyze_JSON(t *testing.T) {
	fa := &fakeAnalyzer{}
	s := newTestServer(fa, Config{})

	body, _ := json.Marshal(map[string]any{
		"image_b64":     base64.StdEncoding.EncodeToString(pngBytes(t)),
		"with_metadata": true,
		"meta":          map[string]string{"app": "browser"},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, map[string]any{"has_text": true, "has_table": false}, doc["predicates"])
	assert.Len(t, doc["eligible_tasks"], 4)

	assert.True(t, fa.lastOpts.WithMetadata)
	assert.Equal(t, "browser", fa.lastOpts.Overrides["app"])
	assert.Equal(t, image.Pt(12, 7), fa.lastSize)
}

func TestAnalyze_Multipart(t *testing.T) {
	fa := &fakeAnalyzer{}
	s := newTestServer(fa, Config{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "shot.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("with_metadata", "true"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, fa.lastOpts.WithMetadata)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
	}{
		{"missing image", nil, `{}`, http.StatusBadRequest},
		{"not an image", nil, `{"image_b64":"aGVsbG8="}`, http.StatusBadRequest},
		{"ocr failure", engine.ErrOCRFailed, "", http.StatusBadGateway},
		{"timeout", context.DeadlineExceeded, "", http.StatusGatewayTimeout},
		{"unexpected", errors.New("boom"), "", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == "" {
				body = `{"image_b64":"` + base64.StdEncoding.EncodeToString(pngBytes(t)) + `"}`
			}
			s := newTestServer(&fakeAnalyzer{err: tt.err}, Config{})

			req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

// blockingOCR waits for the call's context to end.
type blockingOCR struct{}

func (blockingOCR) Recognize(ctx context.Context, _ image.Image) (*ocr.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAnalyze_RequestTimeout(t *testing.T) {
	a := engine.New(blockingOCR{}, nil, quietLogger())
	s := newTestServer(a, Config{RequestTimeout: 20 * time.Millisecond})

	body := `{"image_b64":"` + base64.StdEncoding.EncodeToString(pngBytes(t)) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "deadline exceeded")
}

func TestRules(t *testing.T) {
	s := newTestServer(&fakeAnalyzer{}, Config{})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/rules", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Rules []ruleView `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Len(t, doc.Rules, 2)
	assert.Equal(t, "has_table_rules", doc.Rules[0].Name)
	assert.Equal(t, rules.TableTasks, doc.Rules[0].Tasks)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(&fakeAnalyzer{}, Config{RateLimit: 0.001, Burst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
