package segmentationHandler

import (
	"NailSegmentation/internal/api/segmentation"
	"NailSegmentation/internal/middleware"
	contextPkg "NailSegmentation/pkg/context"
	"NailSegmentation/pkg/log"
	"fmt"
	"time"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

type frame struct {
	messageType int
	data        []byte
}

// handleStream answers every inbound frame with exactly one JSON message, in
// order. A failed frame gets {"error": ...} and the loop continues; read or
// write failures end the connection and cancel the frame in flight.
func (h *SegmentationHandler) handleStream(c *websocket.Conn) {
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	fields := log.Fields{
		"request_id": requestID,
		"remote":     c.RemoteAddr().String(),
	}

	h.log.WithFields(fields).Info("Segmentation stream connected")
	defer h.log.WithFields(fields).Info("Segmentation stream disconnected")

	ctx, cancel := context.WithCancel(contextPkg.WithRequestID(context.Background(), requestID))

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.WithFields(fields).Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	if !h.armIdleDeadline(c, fields) {
		cancel()
		return
	}

	frames := make(chan frame)
	go h.readFrames(ctx, cancel, c, frames, fields)

	// The pooled *websocket.Conn is recycled once this returns, so the
	// reader must be gone by then.
	defer func() {
		cancel()
		c.Close()
		for range frames {
		}
	}()

	seq := 0
	for f := range frames {
		seq++
		frameCtx := contextPkg.WithFrame(contextPkg.WithRequestID(ctx, fmt.Sprintf("%s-%d", requestID, seq)), seq)

		if h.config.StreamReadTimeout > 0 {
			if err := c.SetReadDeadline(time.Time{}); err != nil {
				h.log.WithFields(fields).Errorf("Error clearing read deadline: %v", err)
				return
			}
		}

		reply := h.processFrame(frameCtx, f)
		if ctx.Err() != nil {
			return
		}

		if err := c.SetWriteDeadline(time.Now().Add(h.config.StreamWriteTimeout)); err != nil {
			h.log.WithFields(fields).Errorf("Error setting write deadline: %v", err)
			return
		}
		if err := c.WriteJSON(reply); err != nil {
			h.log.WithFields(fields).Errorf("Error writing stream response: %v", err)
			return
		}

		if !h.armIdleDeadline(c, fields) {
			return
		}
	}
}

// armIdleDeadline starts the idle clock. It is cleared while a frame is
// being processed so slow inference never counts as idleness.
func (h *SegmentationHandler) armIdleDeadline(c *websocket.Conn, fields log.Fields) bool {
	if h.config.StreamReadTimeout <= 0 {
		return true
	}
	if err := c.SetReadDeadline(time.Now().Add(h.config.StreamReadTimeout)); err != nil {
		h.log.WithFields(fields).Errorf("Error setting read deadline: %v", err)
		return false
	}
	return true
}

func (h *SegmentationHandler) readFrames(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, frames chan<- frame, fields log.Fields) {
	defer close(frames)
	defer cancel()

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.log.WithFields(fields).Errorf("Segmentation stream error: %v", err)
			}
			return
		}

		select {
		case frames <- frame{messageType: messageType, data: message}:
		case <-ctx.Done():
			return
		}
	}
}

// processFrame runs the shared pipeline on one frame. Panics are converted to
// an error reply so a single bad frame cannot take the connection down.
func (h *SegmentationHandler) processFrame(ctx context.Context, f frame) (reply interface{}) {
	requestID := contextPkg.GetRequestID(ctx)

	defer func() {
		if r := recover(); r != nil {
			traceID := log.ErrorWithTraceID(log.Fields{
				log.RequestIDKey: requestID,
				"panic":          fmt.Sprint(r),
			}, "Recovered from panic while processing stream frame")
			reply = segmentation.StreamError{Error: fmt.Sprintf("internal error (trace %s)", traceID)}
		}
	}()

	if f.messageType != websocket.BinaryMessage {
		h.log.WithFields(log.Fields{
			"request_id":   requestID,
			"message_type": f.messageType,
		}).Warn("Received unexpected message type")
		return segmentation.StreamError{Error: "expected a binary image frame"}
	}

	result, err := h.segmentationService.Process(ctx, f.data)
	if err != nil {
		return segmentation.StreamError{Error: err.Error()}
	}

	return result
}
