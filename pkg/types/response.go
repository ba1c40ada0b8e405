package types

// SuccessEnvelope wraps every 2xx body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the machine-readable half of an error response. Details holds
// field errors for VALIDATION_ERROR and context for the other codes.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope repeats the public message at the top level for clients that
// only read "message".
type ErrorEnvelope struct {
	Error   APIError `json:"error"`
	Message string   `json:"message"`
}

// MutationAck acknowledges a write that does not echo the resource back.
type MutationAck struct {
	ID      string `json:"id"`
	Status  string `json:"status,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}
