package model

import (
	"errors"
	"fmt"
)

var ErrInvalidRLE = errors.New("invalid run-length mask")

// RLE is a row-major run-length encoded mask. Counts alternate between
// background and foreground runs, starting with background (which may be 0).
type RLE struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Counts []int `json:"counts"`
}

type WireDetection struct {
	Confidence float64 `json:"confidence"`
	Mask       RLE     `json:"mask"`
}

// Response is the reply format of the remote model sidecar.
// Detections is null when the model produced no masks.
type Response struct {
	Detections []WireDetection `json:"detections"`
	Error      string          `json:"error,omitempty"`
}

func DecodeRLE(r RLE) (Mask, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return Mask{}, fmt.Errorf("%w: size %dx%d", ErrInvalidRLE, r.Width, r.Height)
	}

	mask := NewMask(r.Width, r.Height)
	total := len(mask.Pix)
	pos := 0
	for i, n := range r.Counts {
		if n < 0 || pos+n > total {
			return Mask{}, fmt.Errorf("%w: run %d overflows %d pixels", ErrInvalidRLE, i, total)
		}
		if i%2 == 1 {
			for j := pos; j < pos+n; j++ {
				mask.Pix[j] = 1
			}
		}
		pos += n
	}
	if pos != total {
		return Mask{}, fmt.Errorf("%w: runs cover %d of %d pixels", ErrInvalidRLE, pos, total)
	}

	return mask, nil
}

func EncodeRLE(m Mask) RLE {
	counts := make([]int, 0, 16)
	fg := false
	run := 0
	for _, v := range m.Pix {
		if (v > 0) != fg {
			counts = append(counts, run)
			fg = !fg
			run = 0
		}
		run++
	}
	counts = append(counts, run)

	return RLE{Width: m.Width, Height: m.Height, Counts: counts}
}

// ToDetections converts a sidecar reply into model detections.
func (r *Response) ToDetections() ([]Detection, error) {
	if r.Error != "" {
		return nil, errors.New(r.Error)
	}
	if r.Detections == nil {
		return nil, nil
	}

	out := make([]Detection, 0, len(r.Detections))
	for i, d := range r.Detections {
		mask, err := DecodeRLE(d.Mask)
		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
		out = append(out, Detection{Mask: mask, Confidence: d.Confidence})
	}
	return out, nil
}
