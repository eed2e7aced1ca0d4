package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/code-payments/solkit/pkg/http/app"
	"github.com/code-payments/solkit/pkg/server/web"
)

const versionHeader = "X-Solkit-Version"

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(
				web.NewApp(),
				app.WithConfigPath(*configPath),
				app.WithMiddleware(versionMiddleware(version)),
			)
		},
	}
}

// versionMiddleware stamps every response with the running build version.
func versionMiddleware(version string) app.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(versionHeader, version)
			next.ServeHTTP(w, r)
		})
	}
}
