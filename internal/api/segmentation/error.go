package segmentation

import (
	"NailSegmentation/pkg/response"
	"net/http"
)

var (
	ErrDecodeImage      = response.NewError(http.StatusBadRequest, "cannot decode image")
	ErrInference        = response.NewError(http.StatusInternalServerError, "inference failed")
	ErrInferenceTimeout = response.NewError(http.StatusGatewayTimeout, "inference timed out")
	ErrNoFile           = response.NewError(http.StatusBadRequest, "no image uploaded")
	ErrFileTooLarge     = response.NewError(http.StatusRequestEntityTooLarge, "image exceeds upload limit")
	ErrUnsupportedMedia = response.NewError(http.StatusUnsupportedMediaType, "uploaded file is not an image")
	ErrModelUnavailable = response.NewError(http.StatusServiceUnavailable, "model backend unavailable")
	ErrRouteNotFound    = response.NewError(http.StatusNotFound, "route not found")
)
