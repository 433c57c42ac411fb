package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	data := encodePNG(t, 64, 48)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if img.Width != 64 || img.Height != 48 {
		t.Errorf("Decode() size = %dx%d, want 64x48", img.Width, img.Height)
	}
	if img.Format != "png" {
		t.Errorf("Decode() format = %q, want %q", img.Format, "png")
	}
	if img.ContentType() != "image/png" {
		t.Errorf("ContentType() = %q, want %q", img.ContentType(), "image/png")
	}
}

func TestDecodeJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 10, 20)), nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}

	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if img.Width != 10 || img.Height != 20 {
		t.Errorf("Decode() size = %dx%d, want 10x20", img.Width, img.Height)
	}
}

func TestDecodeInvalid(t *testing.T) {
	valid := encodePNG(t, 32, 32)

	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"text", []byte("not-an-image")},
		{"truncated png", valid[:len(valid)/2]},
		{"header only", valid[:8]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if err == nil {
				t.Fatal("Decode() error = nil, want ErrDecode")
			}
			if !errors.Is(err, ErrDecode) {
				t.Errorf("Decode() error = %v, want ErrDecode", err)
			}
		})
	}
}

// forgePNGSize rewrites the IHDR chunk so the header claims w x h pixels of
// 16-bit RGBA while the payload stays tiny.
func forgePNGSize(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := encodePNG(t, 2, 2)
	if string(data[12:16]) != "IHDR" {
		t.Fatalf("unexpected PNG layout: %q", data[12:16])
	}
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	data[24] = 16
	data[25] = 6
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	data := forgePNGSize(t, 300000, 300000)

	_, err := Decode(data)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Decode(%d byte forged png) error = %v, want ErrDecode", len(data), err)
	}
}

func TestDecodeWithLimit(t *testing.T) {
	data := encodePNG(t, 100, 100)

	if _, err := DecodeWithLimit(data, 9999); !errors.Is(err, ErrDecode) {
		t.Errorf("DecodeWithLimit(100x100, 9999) error = %v, want ErrDecode", err)
	}
	if _, err := DecodeWithLimit(data, 10000); err != nil {
		t.Errorf("DecodeWithLimit(100x100, 10000) error = %v, want nil", err)
	}
	if _, err := DecodeWithLimit(data, 0); err != nil {
		t.Errorf("DecodeWithLimit(100x100, 0) error = %v, want nil", err)
	}
}
