package main

import (
	"context"
	"fmt"

	"github.com/aretw0/tessera/internal/cli"
	"github.com/aretw0/tessera/internal/presentation/tui"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a page, template or schema file",
	Long: `Renders a schema to a visual tree.

Formats:
- json:     the visual tree
- markdown: a text preview
- term:     the markdown preview styled for the terminal
- mermaid:  a diagram of the component tree`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, rt, _, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close(context.Background())

		opts := cli.RenderOptions{Source: sourceFlags(cmd)}
		opts.Format, _ = cmd.Flags().GetString("format")
		opts.Overrides, _ = cmd.Flags().GetString("overrides")
		opts.Width, _ = cmd.Flags().GetInt("width")

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			if opts.Template == "" {
				return fmt.Errorf("--watch requires --template")
			}
			present := func(t domain.VisualTree) (string, error) { return tui.Markdown(t), nil }
			if opts.Format == cli.FormatTerm {
				renderer, err := tui.NewRenderer(opts.Width)
				if err != nil {
					return err
				}
				present = func(t domain.VisualTree) (string, error) { return renderer(tui.Markdown(t)) }
			}
			sigCtx := cli.NewSignalContext(context.Background())
			defer sigCtx.Cancel()
			return cli.Watch(sigCtx, rt.Engine, opts.Template, cmd.OutOrStdout(), present)
		}

		return cli.Render(cmd.Context(), rt.Engine, opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addSourceFlags(renderCmd)
	renderCmd.Flags().StringP("format", "f", cli.FormatTerm, "Output format: json, markdown, term or mermaid")
	renderCmd.Flags().String("overrides", "", "JSON object of per-node prop overrides")
	renderCmd.Flags().Int("width", 0, "Wrap width for term output (default: terminal width)")
	renderCmd.Flags().BoolP("watch", "w", false, "Re-render the template when its document changes")
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("page", "", "Stored page reference")
	cmd.Flags().String("template", "", "Template id")
	cmd.Flags().String("file", "", "Schema file, JSON or YAML ('-' for stdin)")
}

func sourceFlags(cmd *cobra.Command) cli.Source {
	var src cli.Source
	src.Page, _ = cmd.Flags().GetString("page")
	src.Template, _ = cmd.Flags().GetString("template")
	src.File, _ = cmd.Flags().GetString("file")
	return src
}
