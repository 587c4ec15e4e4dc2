package http

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tokentrim/internal/adapter/lossless"
	"tokentrim/internal/domain"
	"tokentrim/internal/textio"
	"tokentrim/internal/usecase"
)

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: "Welcome to TokenTrim API"})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleAnalyzeFile reports language and token estimate of one upload.
func (s *Server) handleAnalyzeFile(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing 'file' upload.")
	}
	data, err := s.readUpload(fh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.services.Analyze.AnalyzeFile(uploadName(fh, "unknown"), data))
}

// handleCompress runs the full pipeline on one upload.
func (s *Server) handleCompress(c echo.Context) error {
	aggressive, err := boolQuery(c, "aggressive")
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing 'file' upload.")
	}
	data, err := s.readUpload(fh)
	if err != nil {
		return err
	}

	in := usecase.CompressInput{
		Text:       textio.DecodeBytes(data),
		Filename:   uploadName(fh, "unknown"),
		Aggressive: aggressive,
	}
	ctx := c.Request().Context()
	if s.services.Reports == nil {
		return c.JSON(http.StatusOK, s.services.Compress.Compress(ctx, in))
	}
	report := s.services.Reports.Report(in.Filename, in.Language, in.Aggressive, in.Text, func() *domain.CompressionReport {
		return s.services.Compress.Compress(ctx, in)
	})
	return c.JSON(http.StatusOK, report)
}

// handleDecode expands hash references using a caller supplied decode map.
func (s *Server) handleDecode(c echo.Context) error {
	var req DecodeRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid decode request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing 'code' field.")
	}
	return c.JSON(http.StatusOK, DecodeResponse{
		Decoded: usecase.ExpandHashReferences(req.Code, req.DecodeMap),
	})
}

func (s *Server) handlePipelineRaw(c echo.Context) error {
	files, err := s.readSources(c)
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, s.services.Bundle.RawBundle(c.FormValue("chat"), files, s.now()))
}

func (s *Server) handlePipelineCompressed(c echo.Context) error {
	aggressive, err := boolQuery(c, "aggressive")
	if err != nil {
		return err
	}
	files, err := s.readSources(c)
	if err != nil {
		return err
	}
	out := s.services.Bundle.CompressedBundle(c.Request().Context(), c.FormValue("chat"), files, aggressive, s.now())
	return c.String(http.StatusOK, out)
}

// handleLosslessEncode returns a bundle of the uploaded files as JSON, or
// wrapped in text sentinels when format=envelope.
func (s *Server) handleLosslessEncode(c echo.Context) error {
	files, err := s.readSources(c)
	if err != nil {
		return err
	}
	bundle := s.services.Lossless.Encode(files, s.now())

	switch c.QueryParam("format") {
	case "", "json":
		data, err := lossless.MarshalBundle(bundle, false)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return c.JSONBlob(http.StatusOK, data)
	case "envelope":
		out, err := lossless.EncodeEnvelope(bundle)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return c.String(http.StatusOK, out)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "format must be json or envelope")
	}
}

// handleLosslessDecode accepts a bundle in any serialised form and returns
// the restored files.
func (s *Server) handleLosslessDecode(c echo.Context) error {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, s.config.MaxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	if int64(len(data)) > s.config.MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "bundle exceeds the "+formatLimit(s.config.MaxUploadBytes)+" limit.")
	}

	bundle, err := lossless.ParseBundle(data)
	if err != nil {
		return echo.NewHTTPError(losslessStatus(err), err.Error())
	}
	files, err := s.services.Lossless.Decode(bundle)
	if err != nil {
		return echo.NewHTTPError(losslessStatus(err), err.Error())
	}

	resp := LosslessDecodeResponse{Files: make([]DecodedFile, 0, len(files))}
	for _, f := range files {
		resp.Files = append(resp.Files, DecodedFile{Filename: f.Name, Language: f.Language, Content: f.Text})
	}
	return c.JSON(http.StatusOK, resp)
}
