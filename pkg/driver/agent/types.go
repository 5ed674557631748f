package agent

// Response is the generic agent response envelope.
type Response struct {
	SessionID string      `json:"sessionId,omitempty"`
	Value     interface{} `json:"value,omitempty"`
}

// ErrorValue is the error payload inside a Response value.
type ErrorValue struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SessionRequest creates a new session on the agent.
type SessionRequest struct {
	DeviceID    string `json:"deviceId,omitempty"`
	PackageName string `json:"packageName,omitempty"`
}

// ============================================================================
// Action payloads
// ============================================================================

type typeRequest struct {
	Text   string `json:"text"`
	Submit bool   `json:"submit"`
}

type swipeRequest struct {
	Direction string `json:"direction"`
	Distance  int    `json:"distance,omitempty"`
}

type buttonRequest struct {
	Name string `json:"name"`
}

type appRequest struct {
	Package string `json:"package"`
}

type orientationRequest struct {
	Orientation string `json:"orientation"`
}

type verifyRequest struct {
	Expectation string `json:"expectation"`
	Strictness  string `json:"strictness"`
}
