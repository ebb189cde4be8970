// Package server exposes the intake flow over HTTP with server-sent events.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tropica/briefbuddy/agent"
	"github.com/tropica/briefbuddy/extract"
	"github.com/tropica/briefbuddy/finalize"
)

type Options struct {
	BodyLimitMB int
	CORSOrigins []string
	// Gatherer serves /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
}

type Server struct {
	app      *fiber.App
	flow     *agent.Flow
	sessions *agent.SessionStore
}

func New(flow *agent.Flow, sessions *agent.SessionStore, opts Options) *Server {
	bodyLimit := opts.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 100
	}
	app := fiber.New(fiber.Config{
		AppName:               "briefbuddy",
		BodyLimit:             bodyLimit * 1024 * 1024,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	if len(opts.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(opts.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept",
			AllowMethods: "GET, POST, DELETE, OPTIONS",
		}))
	}

	s := &Server{app: app, flow: flow, sessions: sessions}
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	s.registerRoutes(app.Group("/api"))
	return s
}

func (s *Server) registerRoutes(r fiber.Router) {
	h := r.Group("/sessions")
	h.Post("", s.createSession)
	h.Get("/:id", s.showSession)
	h.Delete("/:id", s.deleteSession)
	h.Post("/:id/turns", s.turn)
	h.Post("/:id/attachments", s.attach)
	h.Post("/:id/finalize", s.finalize)
	h.Post("/:id/reset", s.reset)
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	slog.Info("Server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, agent.ErrSessionNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, agent.ErrTurnInProgress),
		errors.Is(err, agent.ErrAlreadySeeded),
		errors.Is(err, finalize.ErrAlreadyFinalized):
		code = fiber.StatusConflict
	case errors.Is(err, extract.ErrUnsupported):
		code = fiber.StatusUnsupportedMediaType
	case errors.Is(err, extract.ErrEmpty):
		code = fiber.StatusBadRequest
	case errors.Is(err, agent.ErrSeedingDisabled), errors.Is(err, agent.ErrFinalizeDisabled):
		code = fiber.StatusNotImplemented
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
