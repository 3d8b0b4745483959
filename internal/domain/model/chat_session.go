package model

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// MessageKind separates regular replies from the states a surface may want
// to render differently.
type MessageKind string

const (
	KindText      MessageKind = "text"
	KindInterrupt MessageKind = "interrupt" // assistant needs more input before it can finish
	KindError     MessageKind = "error"     // fallback reply after a failed send
)

// Message represents one transcript entry. Values are never mutated after
// creation; sessions only hand out copies.
type Message struct {
	ID         string      `json:"id"`
	Content    string      `json:"content"`
	Sender     Sender      `json:"sender"`
	Kind       MessageKind `json:"kind"`
	Timestamp  time.Time   `json:"timestamp"`
	Plan       string      `json:"plan,omitempty"`
	SubQueries []string    `json:"sub_queries,omitempty"`
}

func (m Message) HasPlan() bool { return m.Plan != "" }

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a ULID that sorts after every ID previously generated by
// this process, so message order survives a sort by ID.
func NewID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// NewThreadID builds the correlation token sent with every request of one
// session: millisecond timestamp plus 80 random bits.
func NewThreadID(now time.Time) string {
	return "thread-" + NewID(now)
}

// ChatSession is the state of one conversation: an append-only transcript,
// the thread it correlates to and whether a reply is being awaited.
type ChatSession struct {
	ThreadID  string
	Messages  []Message
	Draft     string
	Awaiting  bool
	Closed    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewChatSession(now time.Time) *ChatSession {
	return &ChatSession{
		ThreadID:  NewThreadID(now),
		Messages:  make([]Message, 0, 8),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends a new entry and returns a copy of it.
func (s *ChatSession) AddMessage(now time.Time, sender Sender, kind MessageKind, content, plan string, subQueries []string) Message {
	var sq []string
	if len(subQueries) > 0 {
		sq = append(make([]string, 0, len(subQueries)), subQueries...)
	}
	msg := Message{
		ID:         NewID(now),
		Content:    content,
		Sender:     sender,
		Kind:       kind,
		Timestamp:  now,
		Plan:       plan,
		SubQueries: sq,
	}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = now
	return msg
}

// Snapshot returns a copy of the transcript that callers may keep.
func (s *ChatSession) Snapshot() []Message {
	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

func (s *ChatSession) GetRecentMessages(n int) []Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Snapshot()
	}
	out := make([]Message, n)
	copy(out, s.Messages[len(s.Messages)-n:])
	return out
}
