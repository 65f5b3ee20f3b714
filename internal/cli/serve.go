package cli

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/screenlens/internal/server"
)

func newServeCommand(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analyzer over HTTP",
		Long: `Starts an HTTP server with POST /v1/analyze (multipart field "image" or
JSON {"image_b64": ...}), GET /v1/rules and GET /healthz.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				app.cfg.Server.Addr = addr
			}

			a, err := app.buildAnalyzer()
			if err != nil {
				return err
			}
			rs, err := app.rules()
			if err != nil {
				return err
			}

			names := make([]string, 0, len(a.Detectors()))
			for _, d := range a.Detectors() {
				names = append(names, d.Name())
			}
			app.log.WithField("detectors", strings.Join(names, ",")).Info("[*] analyzer ready")

			sc := app.cfg.Server
			srv := server.New(server.Config{
				Addr:           sc.Addr,
				RateLimit:      sc.RateLimit,
				Burst:          sc.Burst,
				RequestTimeout: time.Duration(sc.RequestTimeoutSeconds) * time.Second,
				MaxUploadBytes: sc.MaxUploadBytes,
			}, a, rs, app.log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
