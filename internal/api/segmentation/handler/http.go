package segmentationHandler

import (
	segmentationService "NailSegmentation/internal/api/segmentation/service"
	"NailSegmentation/internal/middleware"
	"NailSegmentation/pkg/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// RequestTimeout bounds one single-shot request; zero disables it.
	RequestTimeout time.Duration

	// StreamReadTimeout closes a stream once it has been idle this long,
	// counted from the last reply; zero disables it.
	StreamReadTimeout time.Duration

	StreamWriteTimeout time.Duration
	Backend            string
}

type SegmentationHandler struct {
	log                 *logrus.Logger
	middleware          middleware.Middleware
	segmentationService segmentationService.ISegmentationService
	utils               utils.IUtils
	config              Config
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	ss segmentationService.ISegmentationService,
	utils utils.IUtils,
	config Config,
) *SegmentationHandler {
	if config.StreamWriteTimeout <= 0 {
		config.StreamWriteTimeout = 10 * time.Second
	}

	return &SegmentationHandler{
		log:                 log,
		middleware:          middleware,
		segmentationService: ss,
		utils:               utils,
		config:              config,
	}
}

func (h *SegmentationHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	srv.Get("/health", h.Health)

	nails := srv.Group("/nails")
	nails.Post("/segment", h.middleware.NewRateLimiter, h.Segment)
	nails.Use("/ws", wsMiddleware)
	nails.Get("/ws", websocket.New(h.handleStream))
}
