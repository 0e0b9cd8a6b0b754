package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"concierge/internal/config"
	"concierge/internal/store"
)

var inspectLimit int

func init() {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Dump recent transcript entries",
		Run:   runInspect,
	}
	cmd.Flags().IntVarP(&inspectLimit, "limit", "n", 20, "Number of entries to show")
	RootCmd.AddCommand(cmd)
}

func runInspect(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}
	tr, err := store.OpenTranscript(cfg.TranscriptDB)
	if err != nil {
		exitErr("open transcript", err)
	}
	defer tr.Close()

	entries, err := tr.Recent(inspectLimit)
	if err != nil {
		exitErr("read transcript", err)
	}
	if len(entries) == 0 {
		fmt.Println("transcript is empty")
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-10s %-9s %q", e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.SessionID, e.Role, e.Text)
		if e.ToolSource != "" {
			line += fmt.Sprintf("  [%s rows=%d %dms]", e.ToolSource, e.ToolCount, e.ElapsedMS)
			if e.ToolError != "" {
				line += " err=" + e.ToolError
			}
		}
		fmt.Println(line)
	}
}
