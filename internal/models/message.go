package models

// ActionGetFingerprint is the only inbound action the relay recognizes.
const ActionGetFingerprint = "getFingerprint"

const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// LookupRequest is the message a kiosk page sends over the WebSocket to
// resolve a student to their enrolled fingerprint template.
type LookupRequest struct {
	Action string     `json:"action"`
	Data   LookupData `json:"data"`
}

type LookupData struct {
	StudentID string `json:"student_id"`
}

// LookupResponse is sent back to the requesting connection only, never
// broadcast.
type LookupResponse struct {
	Status          string `json:"status"`
	FingerprintHash string `json:"fingerprint_hash,omitempty"`
	Message         string `json:"message,omitempty"`
}
