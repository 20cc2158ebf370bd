package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	server     string
	timeout    time.Duration
	signingKey string
	issuer     string
	audience   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "classregctl",
		Short:         "Operate a classreg student registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("CLASSREG_SERVER", "http://localhost:8080"), "registry base URL")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "HTTP request timeout")
	flags.StringVar(&opts.signingKey, "signing-key", os.Getenv("JWT_SIGNING_KEY"), "HMAC key used to mint and verify tokens")
	flags.StringVar(&opts.issuer, "issuer", envOr("JWT_ISSUER", "classreg"), "token issuer")
	flags.StringVar(&opts.audience, "audience", envOr("JWT_AUDIENCE", "classreg-api"), "token audience")

	root.AddCommand(
		newAccountCmd(),
		newTokenCmd(opts),
		newStudentCmd(opts),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
