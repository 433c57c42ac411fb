package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrDecode = errors.New("cannot decode image")

// DefaultMaxPixels caps width*height before any pixel data is allocated.
const DefaultMaxPixels = 40_000_000

// Image is a decoded upload. Raw keeps the original encoded bytes so remote
// model backends can forward them without re-encoding.
type Image struct {
	Width  int
	Height int
	Format string
	Pixels image.Image
	Raw    []byte
}

func Decode(data []byte) (*Image, error) {
	return DecodeWithLimit(data, DefaultMaxPixels)
}

// DecodeWithLimit rejects images whose header claims more than maxPixels
// pixels without decoding them. maxPixels <= 0 means DefaultMaxPixels.
func DecodeWithLimit(data []byte, maxPixels int) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: image is %dx%d, limit is %d pixels", ErrDecode, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}

	return &Image{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
		Pixels: img,
		Raw:    data,
	}, nil
}

// ContentType maps a decoded format name to its MIME type.
func (i *Image) ContentType() string {
	switch i.Format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
