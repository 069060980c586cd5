package transport

// Envelope is the wire shape every endpoint responds with. Success responses
// carry data only; error responses carry a machine-readable code, a human
// message and optional details (the health endpoint attaches its status
// report there).
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// NewSuccess wraps a payload in a success envelope.
func NewSuccess(data interface{}) Envelope {
	return Envelope{
		Success: true,
		Data:    data,
	}
}

// NewError builds an error envelope. details may be nil.
func NewError(code, message string, details interface{}) Envelope {
	return Envelope{
		Code:    code,
		Message: message,
		Details: details,
	}
}
