package model

// Response is the API response envelope.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// OK wraps data in a successful envelope.
func OK(msg string, data any) Response {
	return Response{
		Success: true,
		Message: msg,
		Data:    data,
	}
}

// Fail returns a failed envelope carrying only a message.
func Fail(msg string) Response {
	return Response{
		Success: false,
		Message: msg,
	}
}
