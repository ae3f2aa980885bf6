package commands

import (
	"fmt"
	"os"
	"slices"

	"github.com/fatih/color"
	"github.com/panyam/ohscript/loader"
	"github.com/spf13/cobra"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	okColor   = color.New(color.FgGreen)
	infoColor = color.New(color.FgCyan)
)

var showExports bool

var checkCmd = &cobra.Command{
	Use:   "check <unit>...",
	Short: "Analyzes units and reports their diagnostics",
	Long: `Loads each unit along with everything it imports, runs the type
analysis and prints what it found. Exits with status 1 if any unit has
diagnostics.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		l := loader.NewLoader(loader.NewFileResolver(cfg.UnitPath), cfg.MaxInferPasses)

		failed := 0
		for _, name := range args {
			u, err := l.Load(name)
			if err != nil {
				errColor.Fprintf(os.Stderr, "✗ %s: ", name)
				fmt.Fprintln(os.Stderr, err)
				failed++
				continue
			}
			if !printUnit(u) {
				failed++
			}
		}
		if failed > 0 {
			errColor.Fprintf(os.Stderr, "%d of %d unit(s) failed\n", failed, len(args))
			os.Exit(1)
		}
	},
}

// printUnit reports one analyzed unit and returns false if it has errors.
func printUnit(u *loader.Unit) bool {
	if u.Failed() {
		errColor.Printf("✗ %s", u.Name)
		fmt.Printf(" (%d diagnostic(s))\n", len(u.Diagnostics))
		for _, d := range u.Diagnostics {
			fmt.Printf("    %s\n", d.Error())
		}
		return false
	}
	okColor.Printf("✓ %s", u.Name)
	fmt.Printf(" (%d pass(es), %d lock site(s))\n", u.Passes, len(u.LockSites))
	if showExports && len(u.Exports) > 0 {
		names := make([]string, 0, len(u.Exports))
		for name := range u.Exports {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			infoColor.Printf("    export %s", name)
			fmt.Printf(": %s\n", u.Exports[name])
		}
	}
	return true
}

func init() {
	checkCmd.Flags().BoolVar(&showExports, "exports", false, "Also list each unit's exports with their types")
	AddCommand(checkCmd)
}
