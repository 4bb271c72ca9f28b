package wsapi

// Outbound event types, one JSON object per WebSocket message.
const (
	EventStart = "start"
	EventToken = "token"
	EventError = "error"
	EventEnd   = "end"
)

// Event is the wire shape sent to the client. Data and Seq serialize as
// null when absent; seq is assigned only to token and end events.
type Event struct {
	Type string  `json:"type"`
	Data *string `json:"data"`
	Seq  *int    `json:"seq"`
}

// InitMessage is the single handshake message expected after connect.
// Mode is optional and soft-falls back to simplify.
type InitMessage struct {
	InitData   string `json:"init_data"`
	SourceType string `json:"source_type"`
	Payload    string `json:"payload"`
	Level      string `json:"level"`
	Mode       string `json:"mode,omitempty"`
}
