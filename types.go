package main

type contextKey string

const (
	cacheOnlyModeKey contextKey = "cacheOnlyMode"
	rateLimitTypeKey contextKey = "rateLimitType"
)

// ResultMetadata describes the processed image alongside the extracted text
type ResultMetadata struct {
	Language    string `json:"language,omitempty"`
	ImageWidth  int    `json:"image_width"`
	ImageHeight int    `json:"image_height"`
	ImageFormat string `json:"image_format"`
	Cached      bool   `json:"cached"`
}

// OCRResponse is the response for a single image extraction
type OCRResponse struct {
	Success          bool            `json:"success"`
	Text             string          `json:"text"`
	Confidence       float64         `json:"confidence"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	Metadata         *ResultMetadata `json:"metadata,omitempty"`
}

// BatchItemResult is the per-image result inside a batch response
type BatchItemResult struct {
	Index      int             `json:"index"`
	Filename   string          `json:"filename"`
	Success    bool            `json:"success"`
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
	Error      string          `json:"error,omitempty"`
	Code       string          `json:"code,omitempty"`
	Metadata   *ResultMetadata `json:"metadata,omitempty"`
}

// BatchOCRResponse is the response for a batch extraction
type BatchOCRResponse struct {
	Success          bool              `json:"success"`
	Results          []BatchItemResult `json:"results"`
	TotalImages      int               `json:"total_images"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
	FailedCount      int               `json:"failed_count"`
}

// ErrorResponse is the uniform error body
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Detail  string `json:"detail,omitempty"`
}
