package model

// DefaultReturn is the tagged result every store operation hands back.
// Success reports whether the operation held, Message carries the
// human-readable outcome and Payload the typed value (zero on failure).
type DefaultReturn[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Payload T      `json:"payload"`
}

func Okay[T any](message string, payload T) DefaultReturn[T] {
	return DefaultReturn[T]{Success: true, Message: message, Payload: payload}
}

func Fail[T any](message string) DefaultReturn[T] {
	var zero T
	return DefaultReturn[T]{Success: false, Message: message, Payload: zero}
}
