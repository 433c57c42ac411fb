package segmentation

const (
	// DetectionThreshold is the confidence cut-off passed to the model.
	DetectionThreshold = 0.5
	UploadField        = "file"
)

type StreamError struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Error   string `json:"error,omitempty"`
}
