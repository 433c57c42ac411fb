package handlerUtil

import (
	"NailSegmentation/pkg/log"
	"NailSegmentation/pkg/response"
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Handle writes {"error": ...} with the status carried by err. Client errors
// echo the message; server errors are logged with a trace id the client gets back.
func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	var respErr *response.Error
	if errors.As(err, &respErr) && respErr.Code < fiber.StatusInternalServerError {
		h.logger.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
			"code":       respErr.Code,
			"path":       path,
			"operation":  operation,
		}).Warn("Operation failed with client error")
		return c.Status(respErr.Code).JSON(ErrorResponse{Error: err.Error()})
	}

	status := response.StatusOf(err)
	message := "An unexpected error occurred"
	if respErr != nil {
		message = respErr.Err.Error()
	}

	traceID := log.ErrorWithTraceID(log.Fields{
		log.RequestIDKey: requestID,
		"error":          err.Error(),
		"code":           status,
		"path":           path,
		"operation":      operation,
	}, "Operation failed with server error")

	return c.Status(status).JSON(ErrorResponse{
		Error:   message,
		TraceID: traceID,
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
