package config

import (
	"NailSegmentation/internal/api/segmentation"
	segmentationHandler "NailSegmentation/internal/api/segmentation/handler"
	segmentationService "NailSegmentation/internal/api/segmentation/service"
	"NailSegmentation/internal/middleware"
	"NailSegmentation/pkg/handlerUtil"
	"NailSegmentation/pkg/model"
	"NailSegmentation/pkg/utils"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine     *fiber.App
	log        *logrus.Logger
	env        *Env
	middleware middleware.Middleware
	validator  *validator.Validate
	utils      utils.IUtils
	predictor  model.Predictor
	handlers   []handler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.env == nil {
		return nil, fmt.Errorf("environment is required")
	}
	if server.predictor == nil {
		return nil, fmt.Errorf("model predictor is required")
	}
	if server.middleware == nil {
		return nil, fmt.Errorf("middleware is required")
	}
	if server.utils == nil {
		server.utils = utils.NewWithLimit(server.env.MaxUploadBytes())
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithEnv(env *Env) ServerOption {
	return func(s *Server) error {
		s.env = env
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithPredictor(predictor model.Predictor) ServerOption {
	return func(s *Server) error {
		if predictor == nil {
			return fmt.Errorf("predictor must not be nil")
		}
		s.predictor = predictor
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		if s.env == nil {
			return fmt.Errorf("environment must be loaded before middleware")
		}
		s.middleware = middleware.New(s.log, middleware.LimitFromRPS(s.env.RateLimitRPS), s.env.RateLimitBurst)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		if s.env == nil {
			return fmt.Errorf("environment must be loaded before utils")
		}
		s.utils = utils.NewWithLimit(s.env.MaxUploadBytes())
		return nil
	}
}

func (s *Server) RegisterHandler() {
	s.engine.Use(recover.New(recover.Config{EnableStackTrace: s.env.AppEnv == "development"}))
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins: s.env.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.RequestIDKey,
	}))
	s.engine.Use(compress.New(compress.Config{
		Next: websocket.IsWebSocketUpgrade,
	}))

	// Segmentation
	segmentationServices := segmentationService.NewSegmentationService(s.log, s.predictor, s.env.MinPolygonArea,
		segmentationService.WithMaxPixels(s.env.MaxImagePixels))
	segmentationHandlers := segmentationHandler.New(s.log, s.middleware, segmentationServices, s.utils, segmentationHandler.Config{
		RequestTimeout:    s.env.ModelTimeout + 5*time.Second,
		StreamReadTimeout: s.env.StreamReadTimeout,
		Backend:           s.env.ModelBackend,
	})

	s.handlers = append(s.handlers, segmentationHandlers)
}

// Mount registers every handler under /api and the optional static frontend.
// The frontend is mounted last so it never shadows an API route.
func (s *Server) Mount() {
	router := s.engine.Group("/api")

	for _, h := range s.handlers {
		h.Start(router)
	}

	router.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(handlerUtil.ErrorResponse{Error: segmentation.ErrRouteNotFound.Error()})
	})

	if s.env.StaticDir != "" {
		s.engine.Static("/", s.env.StaticDir, fiber.Static{
			Index:    "index.html",
			Compress: true,
		})
		s.log.Infof("Serving static frontend from %s", s.env.StaticDir)
	}
}

func (s *Server) Run() error {
	s.Mount()

	s.log.WithFields(logrus.Fields{
		"port":    s.env.AppPort,
		"backend": s.env.ModelBackend,
	}).Info("Starting nail segmentation server")

	return s.engine.Listen(fmt.Sprintf(":%s", s.env.AppPort))
}

// Shutdown stops accepting connections, waits up to timeout for in-flight
// requests and closes the model backend.
func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.engine.ShutdownWithTimeout(timeout)

	closeBackend(s.predictor)

	if err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func closeBackend(p model.Predictor) {
	for p != nil {
		if c, ok := p.(interface{ Close() }); ok {
			c.Close()
			return
		}
		u, ok := p.(interface{ Unwrap() model.Predictor })
		if !ok {
			return
		}
		p = u.Unwrap()
	}
}
