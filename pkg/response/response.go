package response

type APIErrorCode string

const (
	APIErrorCodeInvalidInput APIErrorCode = "invalid_input"
	APIErrorCodeNotFound     APIErrorCode = "not_found"
	APIErrorCodeConflict     APIErrorCode = "conflict"
	APIErrorCodeUnauthorized APIErrorCode = "unauthorized"
	APIErrorCodeInternal     APIErrorCode = "internal_error"
)

var codeToMsg = map[APIErrorCode]string{
	APIErrorCodeInvalidInput: "invalid input",
	APIErrorCodeNotFound:     "resource not found",
	APIErrorCodeConflict:     "the resource was modified concurrently, please retry",
	APIErrorCodeUnauthorized: "unauthorized",
	APIErrorCodeInternal:     "internal server error",
}

// APIError is the error half of the envelope. Fields carries per-field
// validation messages keyed by JSON field name.
type APIError struct {
	Code    APIErrorCode      `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// APIResponse is the generic response envelope used by HTTP APIs.
// Use OKT / ErrorT helpers to construct instances.
type APIResponse[T any] struct {
	OK    bool      `json:"ok"`
	Data  T         `json:"data,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{OK: true, Data: data}
}

// ErrorT returns an error response. An empty message falls back to the
// default text for code.
func ErrorT(code APIErrorCode, message string, fields map[string]string) *APIResponse[any] {
	if message == "" {
		message = codeToMsg[code]
	}
	return &APIResponse[any]{Error: &APIError{Code: code, Message: message, Fields: fields}}
}
