package models

import "time"

// PingResponse is the health check payload. Device reflects the execution
// provider the model was initialized on.
type PingResponse struct {
	Status string `json:"status"`
	Device string `json:"device"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// EntryTimings tracks per-stage durations for one archive entry.
type EntryTimings struct {
	Entry     string
	Decode    time.Duration
	Inference time.Duration
	Composite time.Duration
	Encode    time.Duration
	Total     time.Duration
}
