package models

// ExecutionResult is the uniform outcome of one tool or endpoint execution.
// It is created per call and not modified after it is returned.
type ExecutionResult struct {
	Success         bool     `json:"success"`
	EndpointName    string   `json:"endpoint_name"`
	Attempts        int      `json:"attempts"`
	ExecutionTimeMs float64  `json:"execution_time_ms"`
	Response        Response `json:"response"`

	// Err is the typed cause of a failure (validation, transport, HTTP status,
	// deadline). It is not serialized.
	Err error `json:"-"`
}

// Response holds the normalized transport outcome.
// On success StatusCode, Data, RawText and Headers are set; on failure Error
// is set and StatusCode is set when a response was received.
type Response struct {
	StatusCode int               `json:"status_code,omitempty"`
	Data       any               `json:"data,omitempty"`
	RawText    string            `json:"raw_text,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Error      string            `json:"error,omitempty"`
}
