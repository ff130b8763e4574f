package models

import "time"

// ChatTurn is one completed exchange, shipped to the external
// conversation log as a best-effort POST.
type ChatTurn struct {
	SessionID      string    `json:"session_id"`
	UserMessage    string    `json:"user_message"`
	AssistantReply string    `json:"assistant_reply"`
	Model          string    `json:"model"`
	Timestamp      time.Time `json:"timestamp"`
}
