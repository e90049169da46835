package main

import (
	"context"
	"os"

	"github.com/martinsuchenak/vlanaudit/cmd/audit"
	"github.com/martinsuchenak/vlanaudit/cmd/parse"
	"github.com/martinsuchenak/vlanaudit/cmd/server"
	"github.com/martinsuchenak/vlanaudit/internal/log"
	"github.com/paularlott/cli"
	"github.com/paularlott/cli/env"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists
	env.Load()

	// Initialize structured logging
	log.Configure("info", "console")

	rootCmd := &cli.Command{
		Name:        "vlanaudit",
		Version:     version,
		Usage:       "VLAN-to-path audit for fabric endpoints",
		Description: "Find the VPC paths of an endpoint that do not allow its VLAN and generate the remediation CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "log-level",
				Usage:        "Log level (trace, debug, info, warn, error)",
				DefaultValue: "info",
				EnvVars:      []string{"VLANAUDIT_LOG_LEVEL"},
				Global:       true,
			},
			&cli.StringFlag{
				Name:         "log-format",
				Usage:        "Log format (console, json)",
				DefaultValue: "console",
				EnvVars:      []string{"VLANAUDIT_LOG_FORMAT"},
				Global:       true,
			},
		},
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logLevel := cmd.GetString("log-level")
			logFormat := cmd.GetString("log-format")
			log.Configure(logLevel, logFormat)
			log.Debug("Starting vlanaudit", "version", version, "commit", commit, "date", date)
			return ctx, nil
		},
		Commands: []*cli.Command{
			server.Command(version),
			{
				Name:        "audit",
				Usage:       "Audit commands",
				Description: "Audit endpoint VLANs against path attachments",
				Commands:    audit.Commands(),
			},
			{
				Name:        "parse",
				Usage:       "Parse commands",
				Description: "Inspect what the extractors find in controller output",
				Commands:    parse.Commands(),
			},
		},
	}

	if err := rootCmd.Execute(context.Background()); err != nil {
		log.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
