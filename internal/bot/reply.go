package bot

// Option is one inline button.
type Option struct {
	Label string
	Data  string
}

// Document is a file sent back to the chat.
type Document struct {
	Name      string
	MediaType string
	Data      []byte
}

// Reply is everything the bot answers to one event. Transports decide how
// to render it.
type Reply struct {
	Text     string
	Markdown bool
	Options  [][]Option
	Document *Document
	// More holds follow-up messages sent after this one, in order.
	More []Reply
}

func text(s string) Reply {
	return Reply{Text: s}
}

func markdown(s string) Reply {
	return Reply{Text: s, Markdown: true}
}
