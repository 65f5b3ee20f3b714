// Package server exposes the analyzer over HTTP.
package server

import (
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ivlev/screenlens/internal/engine"
	"github.com/ivlev/screenlens/internal/report"
	"github.com/ivlev/screenlens/internal/rules"
	"github.com/ivlev/screenlens/internal/source"
)

// Analyzer is the part of engine.Analyzer the server needs.
type Analyzer interface {
	Analyze(ctx context.Context, img image.Image, opts engine.Options) (*engine.Result, error)
}

type Config struct {
	Addr           string
	RateLimit      float64 // requests per second, 0 disables limiting
	Burst          int
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

type Server struct {
	cfg      Config
	analyzer Analyzer
	rules    []rules.Rule
	log      logrus.FieldLogger
	router   *gin.Engine
}

// analyzeRequest is the JSON form of POST /v1/analyze.
type analyzeRequest struct {
	ImageB64     string            `json:"image_b64" binding:"required"`
	WithMetadata bool              `json:"with_metadata"`
	Meta         map[string]string `json:"meta"`
}

type ruleView struct {
	Name  string       `json:"name"`
	Tasks []rules.Task `json:"tasks"`
}

func New(cfg Config, a Analyzer, rs []rules.Rule, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}

	s := &Server{cfg: cfg, analyzer: a, rules: rs, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log), rateLimit(cfg.RateLimit, cfg.Burst))
	r.GET("/healthz", s.health)
	v1 := r.Group("/v1")
	v1.POST("/analyze", s.analyze)
	v1.GET("/rules", s.listRules)
	s.router = r
	return s
}

// Handler returns the routed handler, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("[*] listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listRules(c *gin.Context) {
	out := make([]ruleView, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, ruleView{Name: r.Name, Tasks: r.Tasks})
	}
	c.JSON(http.StatusOK, gin.H{"rules": out})
}

// analyze accepts a multipart upload in field "image" or a JSON body
// carrying a base64 image.
func (s *Server) analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	img, opts, err := s.readRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	res, err := s.analyzer.Analyze(ctx, img, opts)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, report.FromResult(res))
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrOCRFailed):
		s.log.WithError(err).Warn("[!] analysis failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.log.WithError(err).Error("analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) readRequest(c *gin.Context) (image.Image, engine.Options, error) {
	var opts engine.Options

	if c.ContentType() == gin.MIMEJSON {
		var req analyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, opts, err
		}
		img, err := source.DecodeBase64(req.ImageB64)
		if err != nil {
			return nil, opts, err
		}
		opts.WithMetadata = req.WithMetadata
		opts.Overrides = req.Meta
		return img, opts, nil
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return nil, opts, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, opts, err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, opts, err
	}
	img, err := source.Decode(raw)
	if err != nil {
		return nil, opts, err
	}

	opts.WithMetadata, _ = strconv.ParseBool(c.DefaultPostForm("with_metadata", c.Query("with_metadata")))
	return img, opts, nil
}
