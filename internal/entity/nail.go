package entity

// NailInstance is one detected nail. ID is the index of the detection in the
// model output for this call and is not stable across calls.
type NailInstance struct {
	ID      int       `json:"id"`
	Score   float64   `json:"score"`
	Polygon []float64 `json:"polygon"`
}

type SegmentationResult struct {
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Nails  []NailInstance `json:"nails"`
}
