package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"concierge/internal/server"
)

var serveOrigins []string

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP middleware",
		Run:   runServe,
	}
	cmd.Flags().StringSliceVar(&serveOrigins, "origin", nil,
		"Allowed CORS origin (repeatable; default: allow all)")
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	d, err := buildDeps(true)
	if err != nil {
		exitErr("startup", err)
	}
	defer d.Close()

	srv := server.New(server.Options{
		Router:     d.router,
		Store:      d.store,
		Transcript: d.transcript,
		DBEnabled:  d.dbEnabled,
	})
	if err := srv.Run(fmt.Sprintf(":%d", d.cfg.Port), serveOrigins); err != nil {
		exitErr("serve", err)
	}
}
