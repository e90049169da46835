package parse

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/martinsuchenak/vlanaudit/internal/audit"
	"github.com/martinsuchenak/vlanaudit/internal/parser"
	"github.com/paularlott/cli"
)

// EndpointCommand prints the endpoint record found in a dump
func EndpointCommand() *cli.Command {
	return &cli.Command{
		Name:        "endpoint",
		Usage:       "Extract the endpoint VLAN, pod and VPC paths",
		Description: "Parse endpoint lookup output and print the endpoint record as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "File holding the endpoint lookup output",
				Required: true,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			text, err := os.ReadFile(cmd.GetString("file"))
			if err != nil {
				return fmt.Errorf("reading endpoint output: %w", err)
			}

			record, ok := parser.ParseEndpointOutput(string(text))
			if !ok {
				return audit.ErrEndpointNotFound
			}
			return printJSON(record)
		},
	}
}

// MoqueryCommand prints the path attachments found in a dump
func MoqueryCommand() *cli.Command {
	return &cli.Command{
		Name:        "moquery",
		Usage:       "Extract the VLAN-tagged path attachments",
		Description: "Parse moquery -c fvRsPathAtt output and print the attachments as JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "File holding the moquery output",
				Required: true,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			text, err := os.ReadFile(cmd.GetString("file"))
			if err != nil {
				return fmt.Errorf("reading moquery output: %w", err)
			}
			return printJSON(parser.ParseMoqueryOutput(string(text)))
		},
	}
}

// Commands returns the parse subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		EndpointCommand(),
		MoqueryCommand(),
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
