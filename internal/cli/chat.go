package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"concierge/internal/dialogue"
	"concierge/internal/llm"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive REPL against a local session",
		Run:   runChat,
	}
	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	d, err := buildDeps(false)
	if err != nil {
		exitErr("startup", err)
	}
	defer d.Close()

	st := dialogue.NewState()
	st.DBEnabled = d.dbEnabled

	fmt.Println("Concierge REPL ready. Type a message (or 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}

		payload := llm.Payload{
			Messages: []llm.Message{{Role: "user", Content: text}},
			Stream:   true,
		}
		stream, err := d.router.Route(cmd.Context(), payload, st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "route: %v\n", err)
			continue
		}
		reply := printStream(stream)
		if reply != "" {
			st.AddAssistantTurn(reply)
		}
		fmt.Println()
	}
}

// printStream writes the reply deltas to stdout as they arrive and returns
// the full text.
func printStream(stream llm.Stream) string {
	var b strings.Builder
	for {
		f, err := stream.Recv()
		if errors.Is(err, io.EOF) || f.Done {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "stream: %v\n", err)
			break
		}
		if f.KeepAlive || f.Data == "" {
			continue
		}
		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if json.Unmarshal([]byte(f.Data), &chunk) != nil {
			continue
		}
		for _, c := range chunk.Choices {
			fmt.Print(c.Delta.Content)
			b.WriteString(c.Delta.Content)
		}
	}
	return b.String()
}
