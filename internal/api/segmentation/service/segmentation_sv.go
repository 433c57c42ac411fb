package segmentationService

import (
	"NailSegmentation/internal/api/segmentation"
	"NailSegmentation/internal/entity"
	"NailSegmentation/pkg/imaging"
	"NailSegmentation/pkg/log"
	"NailSegmentation/pkg/model"
	"NailSegmentation/pkg/polygon"
	"NailSegmentation/pkg/response"
	"context"
	"fmt"
	"time"
)

func (s *segmentationService) Process(ctx context.Context, raw []byte) (*entity.SegmentationResult, error) {
	entry := log.WithContext(s.log, ctx)
	start := time.Now()

	img, err := imaging.DecodeWithLimit(raw, s.maxPixels)
	if err != nil {
		entry.WithFields(log.Fields{
			"size":  len(raw),
			"error": err.Error(),
		}).Warn("Rejected undecodable image")
		return nil, response.Wrap(segmentation.ErrDecodeImage, err)
	}
	decoded := time.Since(start)

	result, err := s.Infer(ctx, img)
	if err != nil {
		entry.WithFields(log.Fields{
			"width":  img.Width,
			"height": img.Height,
			"error":  err.Error(),
		}).Error("Segmentation failed")
		return nil, err
	}

	entry.WithFields(log.Fields{
		"format":    img.Format,
		"width":     result.Width,
		"height":    result.Height,
		"nails":     len(result.Nails),
		"decode_ms": decoded.Milliseconds(),
		"total_ms":  time.Since(start).Milliseconds(),
	}).Info("Segmentation completed")

	return result, nil
}

func (s *segmentationService) Infer(ctx context.Context, img *imaging.Image) (*entity.SegmentationResult, error) {
	result := &entity.SegmentationResult{
		Width:  img.Width,
		Height: img.Height,
		Nails:  []entity.NailInstance{},
	}

	detections, err := s.predictor.Predict(ctx, img, segmentation.DetectionThreshold)
	if err != nil {
		return nil, response.Wrap(segmentation.ErrInference, err)
	}

	for idx, det := range detections {
		if det.Mask.Width != img.Width || det.Mask.Height != img.Height {
			return nil, response.Wrap(segmentation.ErrInference, fmt.Errorf(
				"detection %d mask is %dx%d, image is %dx%d",
				idx, det.Mask.Width, det.Mask.Height, img.Width, img.Height))
		}

		poly := polygon.Extract(det.Mask, s.minArea)
		if len(poly) == 0 {
			continue
		}
		result.Nails = append(result.Nails, entity.NailInstance{
			ID:      idx,
			Score:   det.Confidence,
			Polygon: poly,
		})
	}

	return result, nil
}

func (s *segmentationService) CheckModel(ctx context.Context) error {
	p := s.predictor
	for {
		if checker, ok := p.(HealthChecker); ok {
			if err := checker.CheckHealth(ctx); err != nil {
				return response.Wrap(segmentation.ErrModelUnavailable, err)
			}
			return nil
		}

		wrapper, ok := p.(interface{ Unwrap() model.Predictor })
		if !ok {
			return nil
		}
		p = wrapper.Unwrap()
	}
}
