// Package http serves the compression pipeline over HTTP.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"tokentrim/config"
	"tokentrim/internal/adapter/lossless"
	"tokentrim/internal/domain"
	"tokentrim/internal/port"
	"tokentrim/internal/textio"
	"tokentrim/internal/usecase"
)

// Services are the use cases exposed by the server. Reports is optional.
type Services struct {
	Compress *usecase.CompressUseCase
	Analyze  *usecase.AnalyzeUseCase
	Bundle   *usecase.BundleUseCase
	Lossless *usecase.LosslessUseCase
	Reports  port.ReportCache
}

// Server provides HTTP endpoints for TokenTrim.
type Server struct {
	echo     *echo.Echo
	services Services
	logger   *zap.Logger
	config   config.ServerConfig
	metrics  *httpMetrics
	now      func() time.Time
}

// NewServer creates a new HTTP server.
func NewServer(services Services, logger *zap.Logger, cfg config.ServerConfig) (*Server, error) {
	if services.Compress == nil || services.Analyze == nil || services.Bundle == nil || services.Lossless == nil {
		return nil, fmt.Errorf("all services are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.DefaultConfig().Server.MaxUploadBytes
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	s := &Server{
		echo:     e,
		services: services,
		logger:   logger,
		config:   cfg,
		metrics:  newHTTPMetrics(),
		now:      time.Now,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.metrics.middleware)
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{"*"},
		}))
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool {
				p := c.Path()
				return p == "/health" || p == "/metrics"
			},
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     burst,
				ExpiresIn: 10 * time.Minute,
			}),
		}))
	}

	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", s.metrics.handler())

	s.echo.POST("/analyze-file", s.handleAnalyzeFile)
	s.echo.POST("/compress", s.handleCompress)
	s.echo.POST("/decode", s.handleDecode)

	pipeline := s.echo.Group("/pipeline")
	pipeline.POST("/raw", s.handlePipelineRaw)
	pipeline.POST("/compressed", s.handlePipelineCompressed)

	ll := s.echo.Group("/lossless")
	ll.POST("/encode", s.handleLosslessEncode)
	ll.POST("/decode", s.handleLosslessDecode)
}

// ServeHTTP lets the server be mounted or tested as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting http server", zap.String("addr", addr))
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// errorHandler renders errors as {"detail": "..."}.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		detail := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			detail = fmt.Sprint(he.Message)
		} else {
			logger.Error("unhandled request error", zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, ErrorResponse{Detail: detail})
		}
		if err != nil {
			logger.Warn("failed to write error response", zap.Error(err))
		}
	}
}

// readUpload reads one uploaded file, enforcing the size limit and
// rejecting binary content.
func (s *Server) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "failed to open upload: "+err.Error())
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.config.MaxUploadBytes+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "failed to read upload: "+err.Error())
	}
	if int64(len(data)) > s.config.MaxUploadBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("%s: exceeds the %s limit.", uploadName(fh, "file"), formatLimit(s.config.MaxUploadBytes)))
	}
	if textio.IsBinary(data) {
		return nil, echo.NewHTTPError(http.StatusUnsupportedMediaType,
			fmt.Sprintf("%s: binary files are not supported.", uploadName(fh, "file")))
	}
	s.metrics.uploadBytes.Observe(float64(len(data)))
	return data, nil
}

// readSources reads every file of the multipart field "files".
func (s *Server) readSources(c echo.Context) ([]domain.SourceFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form: "+err.Error())
	}

	headers := form.File["files"]
	files := make([]domain.SourceFile, 0, len(headers))
	for i, fh := range headers {
		data, err := s.readUpload(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, domain.SourceFile{
			Name: uploadName(fh, fmt.Sprintf("file_%d", i+1)),
			Text: textio.DecodeBytes(data),
		})
	}
	return files, nil
}

func uploadName(fh *multipart.FileHeader, fallback string) string {
	if fh.Filename == "" {
		return fallback
	}
	return fh.Filename
}

func formatLimit(n int64) string {
	if n%(1<<20) == 0 {
		return strconv.FormatInt(n>>20, 10) + " MB"
	}
	return strconv.FormatInt(n, 10) + " bytes"
}

func boolQuery(c echo.Context, name string) (bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s value %q", name, v))
	}
	return b, nil
}

func losslessStatus(err error) int {
	if errors.Is(err, lossless.ErrReconstruction) || errors.Is(err, lossless.ErrUnsupportedVersion) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}
