package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dshills/termsprite/internal/app"
	"github.com/dshills/termsprite/internal/asset"
	"github.com/dshills/termsprite/internal/script"
)

var checkCmd = &cobra.Command{
	Use:   "check [script.lua]",
	Short: "Validate configuration, assets and script",
	Long: `Loads the configuration and every asset in the manifest, then compiles
the scene script without drawing anything. Each problem is listed and the
command fails if there were any.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Scene.Script = args[0]
	}

	assets, err := app.LoadAssets(cfg)
	if assets == nil {
		return err
	}

	var problems []error
	var list *app.ErrorList
	if errors.As(err, &list) {
		problems = append(problems, list.Errors()...)
	}

	fmt.Fprintf(out, "Manifest: %s\n", cfg.Assets.Manifest)
	listSprites(out, assets)
	listStyles(out, assets)

	if cfg.Scene.Script != "" {
		d := script.New(assets.Catalog, assets.Store, script.Options{})
		if err := d.LoadFile(cfg.Scene.Script); err != nil {
			problems = append(problems, err)
		} else {
			fmt.Fprintf(out, "Script: %s\n", cfg.Scene.Script)
		}
		_ = d.Close()
	}

	if len(problems) == 0 {
		fmt.Fprintln(out, "OK")
		return nil
	}
	fmt.Fprintf(out, "\n%d problem(s):\n", len(problems))
	for _, p := range problems {
		fmt.Fprintf(out, "  %v\n", p)
	}
	return fmt.Errorf("check failed with %d problem(s)", len(problems))
}

func listSprites(out io.Writer, a *app.Assets) {
	names := sortedNames(a.Catalog.Sprites)
	fmt.Fprintf(out, "Sprites (%d):\n", len(names))
	for _, name := range names {
		sp, ok := a.Store.Sprite(a.Catalog.Sprites[name])
		if !ok {
			continue
		}
		fmt.Fprintf(out, "  %-16s %dx%d\n", name, sp.Width(), sp.Height())
	}
}

func listStyles(out io.Writer, a *app.Assets) {
	names := sortedNames(a.Catalog.Styles)
	fmt.Fprintf(out, "Styles (%d):\n", len(names))
	for _, name := range names {
		m, ok := a.Store.StyleMap(a.Catalog.Styles[name])
		if !ok {
			continue
		}
		w, h := m.Size()
		fmt.Fprintf(out, "  %-16s %dx%d\n", name, w, h)
	}
}

func sortedNames(m map[string]asset.Handle) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
