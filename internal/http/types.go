package http

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is the response body for GET /.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// DecodeRequest is the request body for POST /decode.
type DecodeRequest struct {
	Code      string            `json:"code"`
	DecodeMap map[string]string `json:"decodeMap"`
}

// DecodeResponse is the response body for POST /decode.
type DecodeResponse struct {
	Decoded string `json:"decoded"`
}

// DecodedFile is one restored file of POST /lossless/decode.
type DecodedFile struct {
	Filename string `json:"filename"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// LosslessDecodeResponse is the response body for POST /lossless/decode.
type LosslessDecodeResponse struct {
	Files []DecodedFile `json:"files"`
}
