package command

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	httpapi "recommendr/internal/microservices/http-api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := httpapi.RouterOptionsFromConfig(cfg)
		if err != nil {
			return err
		}
		port := cfg.HTTPPort
		if servePort > 0 {
			port = servePort
		}

		engine, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		router := httpapi.NewRouter(engine, opts, log)
		return httpapi.Serve(cmd.Context(), fmt.Sprintf(":%d", port), router, 10*time.Second, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port; defaults to HTTP_PORT")
}
