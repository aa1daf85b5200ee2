package model

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"request_id,omitempty"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type ReadyResponse struct {
	OK          bool   `json:"ok"`
	ServiceName string `json:"service_name,omitempty"`
}

type TranscriptionResponse struct {
	Text string `json:"text"`
}

type RenderResponse struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

type JobTimings struct {
	Job    int64 `json:"job"`
	Render int64 `json:"render"`
	Total  int64 `json:"total"`
}

// JobResponse is what `sat transcribe aws-transcribe --json` prints.
type JobResponse struct {
	JobName    string     `json:"job_name"`
	Transcript string     `json:"transcript"`
	Mode       string     `json:"mode"`
	TimingsMS  JobTimings `json:"timings_ms"`
}
