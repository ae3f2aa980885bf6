package commands

import (
	"fmt"
	"os"

	"github.com/panyam/ohscript/decl"
	"github.com/panyam/ohscript/loader"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <unit>",
	Short: "Prints the syntax tree of a unit",
	Long: `Decodes a unit and pretty prints its tree with node ids and scopes.
With --typed the unit is analyzed first so every node shows its type.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		typed, _ := cmd.Flags().GetBool("typed")

		var script *decl.Script
		if typed {
			l := loader.NewLoader(loader.NewFileResolver(cfg.UnitPath), cfg.MaxInferPasses)
			u, err := l.Load(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				os.Exit(1)
			}
			script = u.Script
		} else if script, err = loader.NewFileResolver(cfg.UnitPath).Resolve(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		fmt.Print(decl.PPrint(script))
	},
}

func init() {
	dumpCmd.Flags().Bool("typed", false, "Analyze the unit and show inferred types")
	AddCommand(dumpCmd)
}
