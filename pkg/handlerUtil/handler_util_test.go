package handlerUtil

import (
	"NailSegmentation/pkg/response"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func runHandle(t *testing.T, err error, requestID string) (int, ErrorResponse) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := New(logger)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return h.Handle(c, requestID, err, c.Path(), "test")
	})

	resp, testErr := app.Test(httptest.NewRequest("GET", "/", nil))
	if testErr != nil {
		t.Fatalf("app.Test() error = %v", testErr)
	}

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.StatusCode, body
}

func TestHandleClientError(t *testing.T) {
	err := response.Wrap(response.NewError(http.StatusBadRequest, "cannot decode image"), errors.New("unexpected EOF"))

	status, body := runHandle(t, err, "req-1")
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", status, http.StatusBadRequest)
	}
	if body.Error != "cannot decode image: unexpected EOF" {
		t.Errorf("error = %q, want the wrapped client message", body.Error)
	}
	if body.TraceID != "" {
		t.Errorf("trace_id = %q, want none for client errors", body.TraceID)
	}
}

func TestHandleServerErrorHidesCause(t *testing.T) {
	err := response.Wrap(response.NewError(http.StatusInternalServerError, "inference failed"), errors.New("cuda: out of memory"))

	status, body := runHandle(t, err, "req-2")
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", status, http.StatusInternalServerError)
	}
	if body.Error != "inference failed" {
		t.Errorf("error = %q, want %q", body.Error, "inference failed")
	}
	if body.TraceID != "req-2" {
		t.Errorf("trace_id = %q, want req-2", body.TraceID)
	}
}

func TestHandleUntypedError(t *testing.T) {
	status, body := runHandle(t, errors.New("boom"), "unknown")
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", status, http.StatusInternalServerError)
	}
	if body.Error != "An unexpected error occurred" {
		t.Errorf("error = %q, want generic message", body.Error)
	}
	if len(body.TraceID) != 36 {
		t.Errorf("trace_id = %q, want a generated UUID", body.TraceID)
	}
}
