// Package api serves quotes and saved projects over HTTP.
package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/treeshoptech/freedom-drains-pro/design"
	"github.com/treeshoptech/freedom-drains-pro/pricing"
	"github.com/treeshoptech/freedom-drains-pro/render"
	"github.com/treeshoptech/freedom-drains-pro/store"
	"go.uber.org/zap"
)

// MaxBodySize bounds an uploaded design.
const MaxBodySize = 4 << 20

type Server struct {
	app     *fiber.App
	store   store.Store
	quoter  *pricing.Quoter
	palette render.Palette
	units   map[design.ElementType]float64
	log     *zap.Logger
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l.Named("api")
		}
	}
}

func WithPalette(p render.Palette) Option {
	return func(s *Server) { s.palette = p }
}

// WithUnitPrices sets the price stamped on click-to-place features that
// arrive without one.
func WithUnitPrices(prices map[design.ElementType]float64) Option {
	return func(s *Server) {
		if prices != nil {
			s.units = prices
		}
	}
}

func New(st store.Store, quoter *pricing.Quoter, opts ...Option) *Server {
	s := &Server{
		store:   st,
		quoter:  quoter,
		palette: render.DefaultPalette(),
		units:   pricing.DefaultUnitPrices(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "Freedom Drains",
		BodyLimit:    MaxBodySize,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := s.app.Group("/v1")
	v1.Post("/quote", s.quote)
	v1.Get("/projects", s.listProjects)
	v1.Get("/projects/:id", s.getProject)
	v1.Delete("/projects/:id", s.deleteProject)
	v1.Patch("/projects/:id/status", s.updateStatus)
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.log.Info("listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) requestLogger(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Info("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)),
		zap.Error(err))
	return err
}

// handleError renders every failed request as {"error": "..."}.
func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal error"

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code, msg = fe.Code, fe.Message
	case errors.Is(err, store.ErrNotFound):
		code, msg = fiber.StatusNotFound, err.Error()
	default:
		s.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
