// Package cli implements the concierge command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Conversational middleware for the company concierge",
	Long: "Concierge sits between a chat client and an OpenAI-compatible model,\n" +
		"enriching each turn with dialogue state, identity policy, and read-only\n" +
		"answers from the staff database and the Athens venue knowledge graph.",
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
