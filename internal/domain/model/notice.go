package model

type NoticeVariant string

const (
	NoticeInfo        NoticeVariant = "info"
	NoticeDestructive NoticeVariant = "destructive"
)

// Notice is a dismissable message surfaced to the user after an operation.
type Notice struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Variant     NoticeVariant `json:"variant"`
}
