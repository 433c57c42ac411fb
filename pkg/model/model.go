package model

import (
	"context"
	"sync"

	"NailSegmentation/pkg/imaging"
)

// Mask is an occupancy grid aligned to the image pixel grid, stored row-major.
// Any positive value is foreground.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewMask(width, height int) Mask {
	return Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

func (m Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] > 0
}

func (m Mask) Set(x, y int, v uint8) {
	m.Pix[y*m.Width+x] = v
}

type Detection struct {
	Mask       Mask
	Confidence float64
}

// Predictor runs the detection model. Implementations shared across requests
// must be safe for concurrent use, or be wrapped with Serialize.
// A nil result with a nil error means nothing was detected.
type Predictor interface {
	Predict(ctx context.Context, img *imaging.Image, threshold float64) ([]Detection, error)
}

type PredictorFunc func(ctx context.Context, img *imaging.Image, threshold float64) ([]Detection, error)

func (f PredictorFunc) Predict(ctx context.Context, img *imaging.Image, threshold float64) ([]Detection, error) {
	return f(ctx, img, threshold)
}

type serialized struct {
	mu   sync.Mutex
	next Predictor
}

// Serialize allows one Predict call in flight at a time.
func Serialize(p Predictor) Predictor {
	return &serialized{next: p}
}

func (s *serialized) Predict(ctx context.Context, img *imaging.Image, threshold float64) ([]Detection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.next.Predict(ctx, img, threshold)
}

func (s *serialized) Unwrap() Predictor {
	return s.next
}
