package bot

// Request is one inbound chat message.
type Request struct {
	UserID string `json:"user_id"`
	ChatID string `json:"chat_id,omitempty"`
	Text   string `json:"text"`
}

// Attachment is a document sent alongside the reply messages.
type Attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Reply is everything the transport should deliver back, in order.
type Reply struct {
	Messages   []string    `json:"messages"`
	Attachment *Attachment `json:"attachment,omitempty"`
	// Typing asks the transport to show a typing indicator while the reply
	// was being generated.
	Typing bool `json:"typing"`
}

func text(messages ...string) Reply {
	return Reply{Messages: messages}
}
