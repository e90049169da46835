package audit

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/martinsuchenak/vlanaudit/internal/audit"
	"github.com/martinsuchenak/vlanaudit/internal/config"
	"github.com/martinsuchenak/vlanaudit/internal/log"
	"github.com/martinsuchenak/vlanaudit/pkg/model"
	"github.com/paularlott/cli"
)

// RunCommand audits one pair of controller dumps
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:        "run",
		Usage:       "Audit one endpoint against the path attachments",
		Description: "Parse an endpoint dump and a moquery dump and write the CSV of VPC paths missing the endpoint VLAN",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "endpoint-file",
				Usage:    "File holding the endpoint lookup output",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "moquery-file",
				Usage:    "File holding the moquery -c fvRsPathAtt output",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "epg",
				Usage: "EPG for the CSV rows (derived from the attachments by default)",
			},
			&cli.StringFlag{
				Name:  "vlan",
				Usage: "VLAN for the CSV rows (the endpoint VLAN by default)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Audit name, used for the artifact file name",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory for the CSV artifact",
			},
			&cli.BoolFlag{
				Name:  "stdout",
				Usage: "Print the CSV instead of writing an artifact",
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load(&config.Config{OutputDir: cmd.GetString("output-dir")})

			endpointText, err := os.ReadFile(cmd.GetString("endpoint-file"))
			if err != nil {
				return fmt.Errorf("reading endpoint output: %w", err)
			}
			moqueryText, err := os.ReadFile(cmd.GetString("moquery-file"))
			if err != nil {
				return fmt.Errorf("reading moquery output: %w", err)
			}

			rep, err := audit.NewAuditor().Run(ctx, model.AuditRequest{
				Name:           cmd.GetString("name"),
				EndpointOutput: string(endpointText),
				MoqueryOutput:  string(moqueryText),
				EPG:            cmd.GetString("epg"),
				VLAN:           cmd.GetString("vlan"),
			})
			if err != nil {
				return err
			}

			if cmd.GetBool("stdout") {
				fmt.Println(rep.CSV)
				return nil
			}

			artifact, err := audit.WriteArtifact(cfg.OutputDir, rep)
			if err != nil {
				return err
			}

			fmt.Printf("VLAN: %s\n", rep.VLAN)
			fmt.Printf("EPG: %s\n", rep.EPG)
			fmt.Printf("Pod: %s\n", rep.Endpoint.Pod)
			for _, res := range rep.Results {
				fmt.Printf("  %-30s %s\n", res.Path, res.Status)
			}
			fmt.Printf("Allowed: %d  Not allowed: %d\n", rep.AllowedCount, rep.NotAllowedCount)
			fmt.Printf("CSV written to %s\n", artifact)
			return nil
		},
	}
}

// BatchCommand runs every audit listed in a manifest
func BatchCommand() *cli.Command {
	return &cli.Command{
		Name:        "batch",
		Usage:       "Run the audits listed in a YAML manifest",
		Description: "Run several audits concurrently and write one CSV artifact per audit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "manifest",
				Usage:    "Batch manifest (YAML)",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "workers",
				EnvVars: []string{"VLANAUDIT_WORKERS"},
				Usage:   "Number of audits run concurrently",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Directory for CSV artifacts when the manifest sets none",
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load(&config.Config{
				OutputDir: cmd.GetString("output-dir"),
				Workers:   cmd.GetInt("workers"),
			})

			m, err := audit.LoadManifest(cmd.GetString("manifest"))
			if err != nil {
				return err
			}

			runner := audit.NewBatchRunner(audit.NewAuditor(), cfg.Workers, cfg.OutputDir)
			outcomes, err := runner.Run(ctx, m)

			for _, o := range outcomes {
				if o.Err != nil {
					fmt.Printf("FAIL  %-24s %v\n", o.Name, o.Err)
					continue
				}
				fmt.Printf("OK    %-24s %d not allowed  %s\n", o.Name, o.Report.NotAllowedCount, o.Artifact)
			}

			if err != nil {
				log.Debug("Batch errors", "error", err)
				return errors.New("one or more audits failed")
			}
			return nil
		},
	}
}

// Commands returns the audit subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		RunCommand(),
		BatchCommand(),
	}
}
