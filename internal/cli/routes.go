package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mark3labs/swaggerwrap/controller"
	"github.com/mark3labs/swaggerwrap/router"
	"github.com/mark3labs/swaggerwrap/spec"
)

var routesRunner = runRoutes

func newRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes synthesized from a Swagger 2.0 document",
		Long: "Load a Swagger 2.0 document, synthesize its route table with stub controllers " +
			"and print one line per route: pattern, methods and link name.",
		Example: strings.TrimSpace(`  swaggerwrap routes --input swagger.yaml
  swaggerwrap --config swaggerwrap.yaml routes --verbose`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return routesRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger 2.0 document")
	flags.Duration("timeout", 0, "HTTP timeout when --input is a URL")

	return cmd
}

func runRoutes(ctx context.Context, cfg *Config) error {
	tbl, err := buildTable(ctx, cfg, nil)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cfg.Stdout(), 0, 4, 2, ' ', 0)
	for _, r := range tbl.Routes() {
		fmt.Fprintf(w, "%s\t%s\t%s%s\n", r.Pattern, methodList(r, ","), r.Name, markers(r))
	}
	return w.Flush()
}

// buildTable loads cfg.Input and synthesizes its table. Loader and synthesis
// failures become usage errors carrying the offending location.
func buildTable(ctx context.Context, cfg *Config, reg controller.Registry) (*router.Table, error) {
	var opts []spec.Option
	if cfg.Timeout > 0 {
		opts = append(opts, spec.WithHTTPTimeout(cfg.Timeout))
	}
	schema, err := spec.Load(ctx, cfg.Input, opts...)
	if err != nil {
		var se *spec.SpecError
		if errors.As(err, &se) {
			msg := fmt.Sprintf("spec: %s", se.Message)
			if se.Location != "" {
				msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
			}
			if se.JSONPointer != "" {
				msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
			}
			return nil, usageErrorf(err, "%s", msg)
		}
		return nil, err
	}

	tbl, err := router.Build(schema, reg, router.WithLogger(cfg.Logger()), router.WithStrict(cfg.Strict))
	if err != nil {
		var se *router.SynthesisError
		if errors.As(err, &se) || errors.Is(err, spec.ErrInvalidReference) || errors.Is(err, spec.ErrSchemaLoad) {
			return nil, usageErrorf(err, "%v\nLocation: %s", err, schema.Location())
		}
		return nil, err
	}
	return tbl, nil
}

func methodList(r *router.Route, sep string) string {
	methods := r.Methods()
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.HTTP()
	}
	return strings.Join(out, sep)
}

func markers(r *router.Route) string {
	var m []string
	if r.Root {
		m = append(m, "root")
	}
	if r.IsDetail {
		m = append(m, "detail")
	}
	if r.Stub {
		m = append(m, "stub")
	}
	if len(m) == 0 {
		return ""
	}
	return "\t[" + strings.Join(m, ",") + "]"
}
