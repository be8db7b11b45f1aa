package models

// ProcessRequest asks the service to fetch and process a document by reference
type ProcessRequest struct {
	URL          string `json:"url" binding:"required"`
	ExpectedText string `json:"expected_text,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Evaluation compares recognized text with a caller-supplied reference
type Evaluation struct {
	ExpectedText string  `json:"expected_text"`
	CER          float64 `json:"character_error_rate"`
	WER          float64 `json:"word_error_rate"`
	EditDistance int     `json:"edit_distance"`
}

// DocumentResponse is returned for every processed document
type DocumentResponse struct {
	RequestID         string            `json:"request_id"`
	Source            string            `json:"source"`
	Timestamp         string            `json:"timestamp"`
	ProcessingTimeSec float64           `json:"processing_time_sec"`
	Result            *ProcessingResult `json:"result"`
	Evaluation        *Evaluation       `json:"evaluation,omitempty"`
}
