package structure

import (
	"context"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, detect http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/detect", detect)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPModel_Detect(t *testing.T) {
	srv := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"results":[
			{"type":"table","bbox":[10,20,210,120],"confidence":0.93,"res":{"html":"<table></table>"}},
			{"type":"text","bbox":[0,0,5,5]}
		]}`))
	})

	m, err := NewHTTPModel(HTTPConfig{Endpoint: srv.URL + "/"}, srv.Client())
	require.NoError(t, err)

	dets, err := m.Detect(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	require.Len(t, dets, 2)

	assert.Equal(t, TypeTable, dets[0].Type)
	assert.Equal(t, []float64{10, 20, 210, 120}, dets[0].BBox)
	assert.InDelta(t, 0.93, dets[0].Score(), 1e-9)
	assert.Equal(t, "<table></table>", dets[0].Res.HTML)
	assert.Equal(t, 1.0, dets[1].Score())
}

func TestHTTPModel_DetectServerError(t *testing.T) {
	srv := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	})

	m, err := NewHTTPModel(HTTPConfig{Endpoint: srv.URL}, srv.Client())
	require.NoError(t, err)

	_, err = m.Detect(context.Background(), image.NewGray(image.Rect(0, 0, 2, 2)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model crashed")
}

func TestNewHTTPModel_Unavailable(t *testing.T) {
	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	tests := []struct {
		name string
		cfg  HTTPConfig
	}{
		{"no endpoint", HTTPConfig{}},
		{"unhealthy", HTTPConfig{Endpoint: unhealthy.URL}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHTTPModel(tt.cfg, unhealthy.Client())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnavailable))
		})
	}
}

func TestUnavailableInitializer(t *testing.T) {
	m, err := Unavailable("disabled")()
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, ErrUnavailable))
}
