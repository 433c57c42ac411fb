package websocketPkg

import (
	"NailSegmentation/pkg/imaging"
	"NailSegmentation/pkg/model"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNotConnected = errors.New("not connected to model service")

// IModelClient is a model.Predictor backed by a long-lived WebSocket to the
// model sidecar. One request is in flight per connection at a time.
type IModelClient interface {
	model.Predictor
	IsConnected() bool
	Reconnect() error
	CheckHealth(ctx context.Context) error
	Close()
}

type predictRequest struct {
	Threshold float64 `json:"threshold"`
	Format    string  `json:"format"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Image     string  `json:"image"`
}

type Option func(*modelClient)

func WithTimeouts(read, write time.Duration) Option {
	return func(c *modelClient) {
		if read > 0 {
			c.readTimeout = read
		}
		if write > 0 {
			c.writeTimeout = write
		}
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(c *modelClient) {
		c.pingInterval = d
	}
}

type modelClient struct {
	url          string
	log          *logrus.Logger
	conn         *websocket.Conn
	mu           sync.Mutex
	roundTrip    sync.Mutex
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewModelClient starts connecting in the background; a failed first
// connection is retried on demand by Predict.
func NewModelClient(url string, log *logrus.Logger, opts ...Option) IModelClient {
	client := &modelClient{
		url:          url,
		log:          log,
		pingInterval: 30 * time.Second,
		readTimeout:  30 * time.Second,
		writeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}

	go client.connectInBackground()

	return client
}

func (c *modelClient) connectInBackground() {
	if _, err := c.ensureConnected(); err != nil {
		c.log.Warnf("Initial connection to model service failed: %v. Will retry on demand.", err)
	} else {
		c.log.Infof("Successfully connected to model service at %s", c.url)
	}
}

func (c *modelClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn != nil
}

// Reconnect tears down the current connection, even one in use, and dials a
// new one.
func (c *modelClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	_, err := c.dialLocked()
	return err
}

// ensureConnected returns the live connection, dialing only when there is none.
func (c *modelClient) ensureConnected() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn, nil
	}

	return c.dialLocked()
}

func (c *modelClient) dialLocked() (*websocket.Conn, error) {
	if c.url == "" {
		return nil, fmt.Errorf("%w: model service URL not configured", ErrNotConnected)
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
		if err != nil {
			c.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	c.conn = conn
	if c.pingInterval > 0 {
		go c.keepAlive(conn)
	}

	return conn, nil
}

func (c *modelClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.writeTimeout))
		c.conn.Close()
		c.conn = nil
	}
}

func (c *modelClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if c.conn != conn {
			c.mu.Unlock()
			return
		}

		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout))
		if err != nil {
			c.log.Warnf("Ping to model service failed, marking connection as dead: %v", err)
			c.conn = nil
			conn.Close()
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}

// drop discards conn after a transport failure, since the request/response
// pairing on it can no longer be trusted.
func (c *modelClient) drop(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == conn {
		c.conn = nil
	}
	conn.Close()
}

func (c *modelClient) Predict(ctx context.Context, img *imaging.Image, threshold float64) ([]model.Detection, error) {
	c.roundTrip.Lock()
	defer c.roundTrip.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := c.ensureConnected()
	if err != nil {
		return nil, fmt.Errorf("cannot connect to model service: %w", err)
	}

	payload, err := json.Marshal(predictRequest{
		Threshold: threshold,
		Format:    img.Format,
		Width:     img.Width,
		Height:    img.Height,
		Image:     base64.StdEncoding.EncodeToString(img.Raw),
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding model request: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	conn.SetWriteDeadline(deadline(ctx, c.writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.drop(conn)
		return nil, fmt.Errorf("error sending frame to model service: %w", err)
	}

	conn.SetReadDeadline(deadline(ctx, c.readTimeout))
	if ctx.Err() != nil {
		// the cancel hook may have fired before the deadline above
		conn.SetReadDeadline(time.Now())
	}
	_, message, err := conn.ReadMessage()
	if err != nil {
		c.drop(conn)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
			return nil, context.DeadlineExceeded
		}
		return nil, fmt.Errorf("error reading model response: %w", err)
	}

	stop()
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	var resp model.Response
	if err := json.Unmarshal(message, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling model response: %w", err)
	}

	c.log.Debugf("Model service returned %d detections", len(resp.Detections))

	return resp.ToDetections()
}

func (c *modelClient) CheckHealth(ctx context.Context) error {
	conn, err := c.ensureConnected()
	if err != nil {
		return err
	}

	if err := conn.WriteControl(websocket.PingMessage, []byte("health"), deadline(ctx, c.writeTimeout)); err != nil {
		c.drop(conn)
		return fmt.Errorf("model service ping failed: %w", err)
	}

	return nil
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}
