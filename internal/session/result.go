package session

import "time"

// StageResult is the timing and identifier record for one protocol stage.
type StageResult struct {
	Name       string            `json:"name"`
	DurationMS float64           `json:"duration_ms"`
	Details    map[string]string `json:"details,omitempty"`
}

// Result is the structured outcome of one record-sharing session. It carries
// every locator and hash needed to replay or audit the transaction.
type Result struct {
	SessionID  string `json:"session_id"`
	RecordID   string `json:"record_id"`
	OwnerID    string `json:"owner_id"`
	UploaderID string `json:"uploader_id"`
	ViewerID   string `json:"viewer_id"`

	PayloadSize int `json:"payload_size_bytes"`

	PlaintextLocator  string `json:"plaintext_locator,omitempty"`
	CiphertextLocator string `json:"ciphertext_locator"`
	CiphertextHash    string `json:"ciphertext_hash"`
	FragmentLocator   string `json:"fragment_locator"`
	FragmentHash      string `json:"fragment_hash"`

	StartedAt time.Time     `json:"started_at"`
	TotalMS   float64       `json:"total_ms"`
	Stages    []StageResult `json:"stages"`
}

func (r *Result) addStage(name string, start time.Time, details map[string]string) {
	r.Stages = append(r.Stages, StageResult{
		Name:       name,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000.0,
		Details:    details,
	})
}
