package models

// Voter mirrors a row of the voters table owned by the kiosk REST API. The
// relay only ever reads it.
type Voter struct {
	StudentID       string `json:"student_id"`
	StudentName     string `json:"student_name"`
	Program         string `json:"program"`
	HasVoted        bool   `json:"has_voted"`
	FingerprintHash string `json:"fingerprint_hash"`
}
