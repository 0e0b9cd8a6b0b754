package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"concierge/internal/replay"
)

func init() {
	cmd := &cobra.Command{
		Use:   "replay <fixture.json>",
		Short: "Replay a conversation fixture through the extractor and state machine",
		Args:  cobra.ExactArgs(1),
		Run:   runReplay,
	}
	RootCmd.AddCommand(cmd)
}

func runReplay(cmd *cobra.Command, args []string) {
	f, err := replay.LoadFixture(args[0])
	if err != nil {
		exitErr("load fixture", err)
	}

	results, sum := replay.Replay(f)
	for _, r := range results {
		status := "ok"
		if !r.Passed() {
			status = "FAIL"
		}
		fmt.Printf("[%s] turn %d: %q -> intent=%s act=%s/%s\n",
			status, r.Index, r.Text, r.Intent, r.ActMajor, r.ActSubtype)
		for _, m := range r.Mismatches {
			fmt.Printf("       %s\n", m)
		}
	}

	fmt.Printf("\n%s: %d turns, %d passed, %d failed\n",
		sum.Description, sum.TotalTurns, sum.Passed, sum.Failed)
	if sum.Failed > 0 {
		os.Exit(1)
	}
}
