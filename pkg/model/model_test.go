package model

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"NailSegmentation/pkg/imaging"
)

func TestDecodeRLE(t *testing.T) {
	mask, err := DecodeRLE(RLE{Width: 4, Height: 2, Counts: []int{1, 2, 3, 2}})
	if err != nil {
		t.Fatalf("DecodeRLE() error = %v", err)
	}

	want := []uint8{0, 1, 1, 0, 0, 0, 1, 1}
	for i := range want {
		if mask.Pix[i] != want[i] {
			t.Fatalf("DecodeRLE() pix = %v, want %v", mask.Pix, want)
		}
	}
	if !mask.At(1, 0) || mask.At(0, 0) || mask.At(4, 0) || mask.At(-1, 1) {
		t.Error("At() returned unexpected occupancy")
	}
}

func TestDecodeRLEInvalid(t *testing.T) {
	tests := []struct {
		name string
		rle  RLE
	}{
		{"zero size", RLE{Width: 0, Height: 3, Counts: []int{0}}},
		{"short", RLE{Width: 2, Height: 2, Counts: []int{1, 1}}},
		{"overflow", RLE{Width: 2, Height: 2, Counts: []int{3, 3}}},
		{"negative", RLE{Width: 2, Height: 2, Counts: []int{5, -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeRLE(tt.rle); !errors.Is(err, ErrInvalidRLE) {
				t.Errorf("DecodeRLE() error = %v, want ErrInvalidRLE", err)
			}
		})
	}
}

func TestEncodeRLE(t *testing.T) {
	mask := NewMask(3, 2)
	mask.Set(0, 0, 1)
	mask.Set(2, 1, 255)

	rle := EncodeRLE(mask)
	want := []int{0, 1, 4, 1}
	if len(rle.Counts) != len(want) {
		t.Fatalf("EncodeRLE() counts = %v, want %v", rle.Counts, want)
	}
	for i := range want {
		if rle.Counts[i] != want[i] {
			t.Fatalf("EncodeRLE() counts = %v, want %v", rle.Counts, want)
		}
	}
}

func TestResponseToDetections(t *testing.T) {
	var empty Response
	dets, err := empty.ToDetections()
	if err != nil || dets != nil {
		t.Errorf("ToDetections() = %v, %v; want nil, nil", dets, err)
	}

	failed := Response{Error: "cuda out of memory"}
	if _, err := failed.ToDetections(); err == nil {
		t.Error("ToDetections() error = nil, want sidecar error")
	}

	ok := Response{Detections: []WireDetection{
		{Confidence: 0.9, Mask: RLE{Width: 2, Height: 1, Counts: []int{0, 2}}},
	}}
	dets, err = ok.ToDetections()
	if err != nil {
		t.Fatalf("ToDetections() error = %v", err)
	}
	if len(dets) != 1 || dets[0].Confidence != 0.9 || !dets[0].Mask.At(1, 0) {
		t.Errorf("ToDetections() = %+v", dets)
	}
}

func TestSerialize(t *testing.T) {
	var inFlight, maxInFlight int32
	p := Serialize(PredictorFunc(func(ctx context.Context, img *imaging.Image, threshold float64) ([]Detection, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return nil, nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Predict(context.Background(), &imaging.Image{}, 0.5)
		}()
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Errorf("max concurrent Predict calls = %d, want 1", maxInFlight)
	}
}

func TestSerializeCancelled(t *testing.T) {
	called := false
	p := Serialize(PredictorFunc(func(ctx context.Context, img *imaging.Image, threshold float64) ([]Detection, error) {
		called = true
		return nil, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Predict(ctx, &imaging.Image{}, 0.5); !errors.Is(err, context.Canceled) {
		t.Errorf("Predict() error = %v, want context.Canceled", err)
	}
	if called {
		t.Error("Predict() reached the wrapped predictor after cancellation")
	}
}
