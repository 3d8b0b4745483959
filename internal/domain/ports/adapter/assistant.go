package adapter

import "context"

// SendRequest is one user turn sent to the assistant backend.
type SendRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id"`
	Resume   bool   `json:"resume"` // true when answering an interrupt
}

// SendResponse is the assistant's reply to one turn.
type SendResponse struct {
	Message     string   `json:"message"`
	Plan        string   `json:"plan,omitempty"`
	SubQueries  []string `json:"sub_queries,omitempty"`
	IsInterrupt bool     `json:"is_interrupt,omitempty"`
}

// TravelAssistant is the port for the conversational backend.
type TravelAssistant interface {
	SendMessage(ctx context.Context, req SendRequest) (SendResponse, error)
}
