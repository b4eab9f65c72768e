package httpserver

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"loan-assistant/internal/application"
	"loan-assistant/internal/domain"
	"loan-assistant/internal/infra/azureopenai"
)

// Prober checks connectivity to the completion deployment.
type Prober interface {
	Probe(ctx context.Context) error
}

// Server exposes the session over HTTP for external front-ends.
type Server struct {
	echo    *echo.Echo
	session *application.Session
	prober  Prober
}

func New(session *application.Session, prober Prober) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{echo: e, session: session, prober: prober}

	e.POST("/chat", s.chat)
	e.POST("/transcriptions", s.transcriptions)
	e.GET("/history", s.history)
	e.DELETE("/history", s.clearHistory)
	e.GET("/healthz", s.healthz)

	return s
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	Spoken    bool   `json:"spoken"`
	Timestamp string `json:"timestamp"`
}

type errorResponse struct {
	Error    string                `json:"error"`
	Attempts []azureopenai.Attempt `json:"attempts,omitempty"`
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	result, err := s.session.ProcessQuery(c.Request().Context(), req.Query)
	if err != nil {
		var exhausted *azureopenai.ExhaustedError
		if errors.As(err, &exhausted) {
			return c.JSON(http.StatusBadGateway, errorResponse{
				Error:    exhausted.Error(),
				Attempts: exhausted.Attempts,
			})
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, chatResponse{
		Reply:     result.Message.Content,
		Spoken:    result.Spoken,
		Timestamp: result.Message.FormattedTime(),
	})
}

type transcriptionResponse struct {
	Outcome domain.TranscriptionOutcome `json:"outcome"`
	Text    string                      `json:"text,omitempty"`
	Detail  string                      `json:"detail,omitempty"`
}

// transcriptions accepts a raw WAV body and returns the tagged recognition
// result, for callers that record audio remotely.
func (s *Server) transcriptions(c echo.Context) error {
	path := filepath.Join(os.TempDir(), "upload-"+uuid.NewString()+".wav")
	f, err := os.Create(path)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "storing upload"})
	}
	defer os.Remove(path)

	if _, err := f.ReadFrom(c.Request().Body); err != nil {
		f.Close()
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "reading upload"})
	}
	f.Close()

	result := s.session.TranscribeFile(c.Request().Context(), path)
	return c.JSON(http.StatusOK, transcriptionResponse{
		Outcome: result.Outcome,
		Text:    result.Text,
		Detail:  result.Detail,
	})
}

func (s *Server) history(c echo.Context) error {
	return c.JSON(http.StatusOK, s.session.History())
}

func (s *Server) clearHistory(c echo.Context) error {
	s.session.Clear()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) healthz(c echo.Context) error {
	if err := s.prober.Probe(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
