package llm

// #region wire-types

// Message is one chat message in the OpenAI-compatible wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Payload is the chat-completions request body.
type Payload struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

// completionResponse is the non-streaming response body.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// #endregion wire-types

// #region stream

// Fragment is one unit of a reply stream. Exactly one of the three shapes is
// set: a data chunk (raw JSON for the SSE data line), a keep-alive ping, or
// the terminal done marker.
type Fragment struct {
	Data      string
	KeepAlive bool
	Done      bool
}

// Stream yields reply fragments until io.EOF.
type Stream interface {
	Recv() (Fragment, error)
}

// #endregion stream
