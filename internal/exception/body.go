package exception

// Body is the client visible projection of a classification written by the
// global error handler. Stacks and internal payloads never appear here.
type Body struct {
	Code      int            `json:"code"`
	Name      string         `json:"name"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestID,omitempty"`
}

// NewBody projects c for a response to the request identified by requestID.
func NewBody(c Classified, requestID string) Body {
	return Body{
		Code:      c.StatusCode,
		Name:      c.Name,
		Message:   c.Message,
		Details:   c.Details,
		RequestID: requestID,
	}
}

// Fallback is written when formatting or writing a response failed.
func Fallback() Body {
	return Body{
		Code:    DefaultStatus,
		Name:    DefaultName,
		Message: DefaultMessage,
	}
}
