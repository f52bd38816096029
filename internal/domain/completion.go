package domain

// CompletionMessage is one turn of a conversation forwarded to the
// text-completion service.
type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
