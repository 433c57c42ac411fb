package segmentationService

import (
	"NailSegmentation/internal/entity"
	"NailSegmentation/pkg/imaging"
	"NailSegmentation/pkg/model"
	"context"

	"github.com/sirupsen/logrus"
)

type ISegmentationService interface {
	Process(ctx context.Context, raw []byte) (*entity.SegmentationResult, error)
	Infer(ctx context.Context, img *imaging.Image) (*entity.SegmentationResult, error)
	CheckModel(ctx context.Context) error
}

// HealthChecker is implemented by model backends that can report reachability.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

type segmentationService struct {
	log       *logrus.Logger
	predictor model.Predictor
	minArea   float64
	maxPixels int
}

type Option func(*segmentationService)

// WithMaxPixels caps the decoded image size; zero keeps imaging.DefaultMaxPixels.
func WithMaxPixels(n int) Option {
	return func(s *segmentationService) {
		s.maxPixels = n
	}
}

// NewSegmentationService wires the shared predictor. The predictor is used
// read-only by every call and must tolerate concurrent Predict calls.
func NewSegmentationService(log *logrus.Logger, predictor model.Predictor, minArea float64, opts ...Option) ISegmentationService {
	svc := &segmentationService{
		log:       log,
		predictor: predictor,
		minArea:   minArea,
	}
	for _, opt := range opts {
		opt(svc)
	}

	return svc
}
