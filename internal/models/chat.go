package models

// ChatPayload is the {from, text, timestamp} body carried by every chat
// envelope. Timestamps are client-supplied epoch millis; the transcript
// is transient and never persisted.
type ChatPayload struct {
	From      string `json:"from"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// ChatInbound is what a client sends over the socket.
type ChatInbound struct {
	Type string      `json:"type"`
	Data ChatPayload `json:"data"`
}

// ChatOutbound is what the server pushes to the counterpart.
type ChatOutbound struct {
	Type    string      `json:"type"`
	Message ChatPayload `json:"message"`
}
