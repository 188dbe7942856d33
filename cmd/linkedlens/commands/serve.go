package commands

import (
	"github.com/spf13/cobra"

	"LinkedLens/internal/app"
)

var (
	serveAddr  string
	serveWatch bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "override server.addr")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload and re-analyze when the page file changes")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [page.html]",
	Short: "Analyze the page after the startup delay and serve the control surface.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig()
		if len(args) == 1 {
			cfg.Page.Path = args[0]
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if serveWatch {
			cfg.Page.Watch = true
		}

		application, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Serve(cmd.Context())
	},
}
