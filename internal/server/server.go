package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/echukwudebere/kachifo/internal/pipeline"
	"github.com/echukwudebere/kachifo/models"
)

// New builds the echo server: unified error envelope, recovery, CORS,
// health and metrics, plus the interaction and session routes.
func New(p *pipeline.Pipeline) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ih := &InteractHandler{Pipeline: p}
	ih.Register(e)
	sh := &SessionsHandler{Pipeline: p}
	sh.Register(e.Group("/sessions"))

	return e
}

// InteractHandler serves the main interaction endpoint.
type InteractHandler struct {
	Pipeline *pipeline.Pipeline
}

func (h *InteractHandler) Register(e *echo.Echo) {
	e.POST("/interact", h.interact)
	e.POST("/interact/stream", h.stream)
}

type interactRequest struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id"`
}

func (h *InteractHandler) interact(c echo.Context) error {
	var req interactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.Pipeline.Submit(c.Request().Context(), pipeline.Request{
		Input:     req.Input,
		SessionID: req.SessionID,
		ClientID:  c.RealIP(),
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// stream serves the same interaction as server-sent events: progress
// messages while the pipeline runs, then the result, then EOF.
func (h *InteractHandler) stream(c echo.Context) error {
	var req interactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.WriteHeader(http.StatusOK)

	events := h.Pipeline.Stream(c.Request().Context(), pipeline.Request{
		Input:     req.Input,
		SessionID: req.SessionID,
		ClientID:  c.RealIP(),
	})
	enc := func(event string, payload interface{}) error {
		if err := writeSSE(resp, event, payload); err != nil {
			return err
		}
		resp.Flush()
		return nil
	}
	for ev := range events {
		switch {
		case ev.Err != nil:
			he := httpError(ev.Err)
			if err := enc("error", map[string]interface{}{"error": fmt.Sprint(he.Message), "status": he.Code}); err != nil {
				return nil
			}
		case ev.Result != nil:
			if err := enc("result", ev.Result); err != nil {
				return nil
			}
		default:
			if err := enc("progress", map[string]string{"message": ev.Message}); err != nil {
				return nil
			}
		}
	}
	return nil
}

// SessionsHandler exposes conversation history.
type SessionsHandler struct {
	Pipeline *pipeline.Pipeline
}

func (h *SessionsHandler) Register(g *echo.Group) {
	g.GET("/:id/history", h.history)
	g.DELETE("/:id", h.remove)
}

func (h *SessionsHandler) history(c echo.Context) error {
	turns, ok := h.Pipeline.History(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": c.Param("id"),
		"turns":      turns,
	})
}

func (h *SessionsHandler) remove(c echo.Context) error {
	h.Pipeline.ClearSession(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// httpError maps pipeline errors to status codes.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, models.ErrQuotaExceeded):
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	case errors.Is(err, models.ErrEmptyInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func writeSSE(w http.ResponseWriter, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
