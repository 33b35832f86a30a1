package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turtacn/SymptomSense/internal/bootstrap"
	"github.com/turtacn/SymptomSense/pkg/errors"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: "Start the HTTP API with the configured stores. The service logs with the\n" +
			"log section of the config file and stops gracefully on SIGINT or SIGTERM.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port < 0 || port > 65535 {
				return errors.InvalidParam("port must be between 0 and 65535")
			}
			return runServe(cmd, port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, port int) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if port > 0 {
		cliCtx.Config.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --timeout bounds startup only.
	startCtx, cancel := context.WithTimeout(ctx, cliCtx.Config.Model.LoadTimeout+cliCtx.Timeout)
	app, err := bootstrap.New(startCtx, cliCtx.Config, bootstrap.Options{Version: Version})
	cancel()
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx)
}
