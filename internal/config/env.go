package config

import (
	"NailSegmentation/pkg/imaging"
	"NailSegmentation/pkg/log"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BackendWebSocket = "ws"
	BackendHTTP      = "http"
)

type Env struct {
	AppPort           string        `validate:"required,numeric"`
	AppEnv            string        `validate:"required,oneof=development production test"`
	ModelBackend      string        `validate:"required,oneof=ws http"`
	ModelWSURL        string        `validate:"required_if=ModelBackend ws,omitempty,url"`
	ModelHTTPURL      string        `validate:"required_if=ModelBackend http,omitempty,url"`
	ModelTimeout      time.Duration `validate:"gt=0"`
	ModelSerialize    bool
	MinPolygonArea    float64       `validate:"gte=0"`
	StaticDir         string        `validate:"omitempty,dir"`
	CORSOrigins       string        `validate:"required"`
	RateLimitRPS      float64       `validate:"gte=0"`
	RateLimitBurst    int           `validate:"gte=0"`
	MaxUploadMB       int           `validate:"gt=0,lte=100"`
	MaxImagePixels    int           `validate:"gt=0"`
	StreamReadTimeout time.Duration `validate:"gte=0"`
}

// LoadEnv reads an optional .env file and then the process environment.
func LoadEnv(validate *validator.Validate) (*Env, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		log.Debug(nil, "No .env file found, using the process environment")
	}

	return ParseEnv(os.Getenv, validate)
}

func ParseEnv(getenv func(string) string, validate *validator.Validate) (*Env, error) {
	p := envParser{getenv: getenv}

	env := &Env{
		AppPort:           p.str("APP_PORT", "3000"),
		AppEnv:            p.str("APP_ENV", "development"),
		ModelBackend:      strings.ToLower(p.str("MODEL_BACKEND", BackendWebSocket)),
		ModelWSURL:        p.str("MODEL_WS_URL", "ws://localhost:8000/ws/predict"),
		ModelHTTPURL:      p.str("MODEL_HTTP_URL", ""),
		ModelTimeout:      p.duration("MODEL_TIMEOUT", 30*time.Second),
		ModelSerialize:    p.boolean("MODEL_SERIALIZE", false),
		MinPolygonArea:    p.float("MIN_POLYGON_AREA", 50),
		StaticDir:         p.str("STATIC_DIR", ""),
		CORSOrigins:       p.str("CORS_ORIGINS", "*"),
		RateLimitRPS:      p.float("RATE_LIMIT_RPS", 20),
		RateLimitBurst:    p.integer("RATE_LIMIT_BURST", 40),
		MaxUploadMB:       p.integer("MAX_UPLOAD_MB", 10),
		MaxImagePixels:    p.integer("MAX_IMAGE_PIXELS", imaging.DefaultMaxPixels),
		StreamReadTimeout: p.duration("STREAM_READ_TIMEOUT", 0),
	}
	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}

	if err := validate.Struct(env); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return env, nil
}

func (e *Env) MaxUploadBytes() int64 {
	return int64(e.MaxUploadMB) * 1024 * 1024
}

type envParser struct {
	getenv func(string) string
	errs   []error
}

func (p *envParser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *envParser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (p *envParser) float(key string, def float64) float64 {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *envParser) integer(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *envParser) boolean(key string, def bool) bool {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}
