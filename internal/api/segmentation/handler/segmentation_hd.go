package segmentationHandler

import (
	"NailSegmentation/internal/api/segmentation"
	contextPkg "NailSegmentation/pkg/context"
	"NailSegmentation/pkg/handlerUtil"
	"NailSegmentation/pkg/log"
	"NailSegmentation/pkg/response"
	"NailSegmentation/pkg/utils"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *SegmentationHandler) Segment(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c := contextPkg.FromFiberCtx(ctx)
	if h.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		c, cancel = context.WithTimeout(c, h.config.RequestTimeout)
		defer cancel()
	}

	errHandler := handlerUtil.New(h.log)

	raw, err := h.readUpload(ctx)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "read_upload")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"size":       len(raw),
	}).Debug("Processing segmentation request")

	result, err := h.segmentationService.Process(c, raw)
	if err != nil {
		if errors.Is(c.Err(), context.DeadlineExceeded) {
			err = response.Wrap(segmentation.ErrInferenceTimeout, err)
		}
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "segment")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
}

// readUpload takes the multipart "file" field, falling back to a raw image body.
func (h *SegmentationHandler) readUpload(ctx *fiber.Ctx) ([]byte, error) {
	file, err := ctx.FormFile(segmentation.UploadField)
	if err == nil {
		data, err := h.utils.ReadImageFile(file)
		if err != nil {
			return nil, uploadError(err)
		}
		return data, nil
	}

	body := ctx.Body()
	if len(body) == 0 || !utils.IsImageContentType(ctx.Get(fiber.HeaderContentType)) {
		return nil, segmentation.ErrNoFile
	}
	if int64(len(body)) > h.utils.MaxFileSize() {
		return nil, segmentation.ErrFileTooLarge
	}

	return body, nil
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, utils.ErrNoFile):
		return segmentation.ErrNoFile
	case errors.Is(err, utils.ErrFileTooLarge):
		return segmentation.ErrFileTooLarge
	case errors.Is(err, utils.ErrNotImage):
		return segmentation.ErrUnsupportedMedia
	default:
		return response.Wrap(segmentation.ErrNoFile, err)
	}
}

func (h *SegmentationHandler) Health(ctx *fiber.Ctx) error {
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 3*time.Second)
	defer cancel()

	if err := h.segmentationService.CheckModel(c); err != nil {
		h.log.WithFields(log.Fields{
			"request_id": h.middleware.GetRequestID(ctx),
			"backend":    h.config.Backend,
			"error":      err.Error(),
		}).Warn("Model backend health check failed")
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(segmentation.HealthResponse{
			Status:  "unavailable",
			Backend: h.config.Backend,
			Error:   err.Error(),
		})
	}

	return ctx.JSON(segmentation.HealthResponse{
		Status:  "ok",
		Backend: h.config.Backend,
	})
}
