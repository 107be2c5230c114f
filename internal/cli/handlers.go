package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	goemitter "github.com/mark3labs/swaggerwrap/internal/emitter/goemitter"
)

var handlersRunner = runHandlers

func newHandlersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handlers",
		Short: "List controller bindings and generate stub controllers",
		Long: "List which controller serves each path of a Swagger 2.0 document. " +
			"With --generate, write a Go file with stub controllers for every declared controller name.",
		Example: strings.TrimSpace(`  swaggerwrap handlers --input swagger.yaml
  swaggerwrap handlers --input swagger.yaml --generate --out ./handlers/handlers.go --package handlers`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return handlersRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger 2.0 document")
	flags.Duration("timeout", 0, "HTTP timeout when --input is a URL")
	flags.Bool("generate", false, "Write the stub controllers file")
	flags.String("out", "handlers.go", "Go file to write with --generate")
	flags.String("package", "handlers", "Package name of the generated file")
	flags.Bool("all", false, "Generate every declared controller, not only stubbed ones")
	flags.Bool("force", false, "Overwrite the output file if it already exists")

	return cmd
}

func runHandlers(ctx context.Context, cfg *Config) error {
	tbl, err := buildTable(ctx, cfg, nil)
	if err != nil {
		return err
	}

	out := cfg.Stdout()
	for _, r := range tbl.Routes() {
		if r.Root {
			continue
		}
		name := r.Controller
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(out, "%s -> %s (%s)\n", r.Path, name, methodList(r, ", "))
	}

	if cfg.Out == "" {
		cfg.Out = "handlers.go"
	}
	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	res, err := goemitter.Emit(ctx, tbl, goemitter.Options{
		Out:     cfg.Out,
		Package: cfg.Package,
		Force:   cfg.Force,
		DryRun:  !cfg.Generate,
		All:     cfg.All,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}

	if !cfg.Generate {
		fmt.Fprintf(out, "\nPlanned controllers for %s (package %s, %d controllers):\n", absOut, res.Package, len(res.Controllers))
		for _, c := range res.Controllers {
			fmt.Fprintf(out, "- %s (%s)\n", c.Name, c.Kind)
		}
		return nil
	}
	cfg.Logger().Info("stub controllers written", "file", absOut, "controllers", len(res.Controllers), "bytes", len(res.Source))
	fmt.Fprintf(out, "\nWrote %d controllers to %s\n", len(res.Controllers), absOut)
	return nil
}

func wrapOutputError(err error, out string) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") ||
		strings.Contains(lower, "rename") || strings.Contains(lower, "already exists") || strings.Contains(lower, "directory") {
		return usageErrorf(err, "output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", out, msg)
	}
	return err
}
