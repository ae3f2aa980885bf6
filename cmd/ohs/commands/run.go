package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/panyam/ohscript/core"
	"github.com/panyam/ohscript/runtime"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <unit>",
	Short: "Analyzes and runs a unit",
	Long: `Runs a unit and prints the value of its script. A unit with type
errors is not run. Uncaught panics print their code and position and exit
with status 2.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		traceFile, _ := cmd.Flags().GetString("trace")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		rt := runtime.NewRuntimeFromConfig(cfg)
		if traceFile != "" {
			rt.Tracer = runtime.NewExecutionTracer()
		}
		start := time.Now()
		out, err := rt.Run(ctx, args[0])
		rt.Wait()
		core.Debug("ran %s in %v", args[0], time.Since(start))

		if traceFile != "" {
			if werr := writeTrace(rt.Tracer, traceFile, args[0]); werr != nil {
				fmt.Fprintln(os.Stderr, "Error writing trace:", werr)
			} else {
				infoColor.Fprintf(os.Stderr, "trace written to %s\n", traceFile)
			}
		}

		var ae *runtime.AnalysisError
		var fault *runtime.Fault
		switch {
		case err == nil:
			fmt.Println(out)
		case errors.As(err, &ae):
			errColor.Fprintln(os.Stderr, ae.Error())
			os.Exit(1)
		case errors.As(err, &fault):
			errColor.Fprintf(os.Stderr, "panic: ")
			fmt.Fprintln(os.Stderr, fault)
			os.Exit(2)
		default:
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	},
}

func writeTrace(t *runtime.ExecutionTracer, path, unit string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.WriteJSON(f, unit)
}

func init() {
	runCmd.Flags().StringP("trace", "t", "", "Write an execution trace as JSON to this file")
	runCmd.Flags().Duration("timeout", 0, "Cancel the run after this long (0 means no limit)")
	AddCommand(runCmd)
}
