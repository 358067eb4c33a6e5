package model

// SegmentResponse is the payload returned by the user segment service.
type SegmentResponse struct {
	Segment string `json:"segment"`
}
