package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// #region client

// Client talks to OpenAI-compatible chat-completions endpoints. MainURL
// serves the user-facing reply stream; SQLURL and SPARQLURL serve the
// deterministic query generators.
type Client struct {
	MainURL   string
	SQLURL    string
	SPARQLURL string

	KeepAlive time.Duration
	httpc     *http.Client
}

// NewClient builds a client with the given endpoints and timeouts.
func NewClient(mainURL, sqlURL, sparqlURL string, timeout, keepAlive time.Duration) *Client {
	return &Client{
		MainURL:   mainURL,
		SQLURL:    sqlURL,
		SPARQLURL: sparqlURL,
		KeepAlive: keepAlive,
		httpc:     &http.Client{Timeout: timeout},
	}
}

// #endregion client

// #region streaming

// sseStream pulls fragments from the upstream SSE body. A keep-alive
// fragment is emitted whenever the upstream stays silent longer than the
// configured interval, so downstream proxies keep the connection open.
type sseStream struct {
	ch        <-chan Fragment
	keepAlive time.Duration
	done      bool
}

func (s *sseStream) Recv() (Fragment, error) {
	if s.done {
		return Fragment{}, io.EOF
	}
	select {
	case frag, ok := <-s.ch:
		if !ok {
			s.done = true
			return Fragment{}, io.EOF
		}
		if frag.Done {
			s.done = true
		}
		return frag, nil
	case <-time.After(s.keepAlive):
		return Fragment{KeepAlive: true}, nil
	}
}

// StreamChat proxies a streaming chat request against the main endpoint.
// The returned stream always ends with a Done fragment, even when the
// upstream never sends one.
func (c *Client) StreamChat(ctx context.Context, p Payload) (Stream, error) {
	p.Stream = true
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.MainURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream request: upstream status %d", resp.StatusCode)
	}

	ch := make(chan Fragment)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				break
			}
			select {
			case ch <- Fragment{Data: data}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case ch <- Fragment{Done: true}:
		case <-ctx.Done():
		}
	}()

	return &sseStream{ch: ch, keepAlive: c.KeepAlive}, nil
}

// #endregion streaming

// #region canned

// textStream wraps a fixed reply in the streaming wire shape: one delta
// chunk, then done.
type textStream struct {
	frames []Fragment
	pos    int
}

func (s *textStream) Recv() (Fragment, error) {
	if s.pos >= len(s.frames) {
		return Fragment{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

// TextStream returns a stream carrying one canned text reply.
func TextStream(text string) Stream {
	chunk, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"delta": map[string]string{"content": text}},
		},
	})
	return &textStream{frames: []Fragment{
		{Data: string(chunk)},
		{Done: true},
	}}
}

// #endregion canned

// #region completion

// complete posts a non-streaming request to url and returns the first
// choice's content.
func (c *Client) complete(ctx context.Context, url string, p Payload) (string, error) {
	p.Stream = false
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request: upstream status %d", resp.StatusCode)
	}

	var cr completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("completion: empty choices")
	}
	return cr.Choices[0].Message.Content, nil
}

// CompleteSQL asks the text-to-SQL generator for one statement.
func (c *Client) CompleteSQL(ctx context.Context, messages []Message) (string, error) {
	return c.complete(ctx, c.SQLURL, Payload{
		Model:       "text-to-sql",
		Messages:    messages,
		Temperature: 0.0,
		MaxTokens:   192,
	})
}

// CompleteSPARQL asks the SPARQL generator for one query.
func (c *Client) CompleteSPARQL(ctx context.Context, messages []Message) (string, error) {
	return c.complete(ctx, c.SPARQLURL, Payload{
		Model:       "text-to-sparql",
		Messages:    messages,
		Temperature: 0.0,
		MaxTokens:   256,
	})
}

// #endregion completion
