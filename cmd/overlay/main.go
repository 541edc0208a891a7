// Command overlay inspects and edits overlay documents from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger *zap.Logger

	verbose  bool
	file     string
	engine   string
	expr     string
	combiner string
	viewID   string
	setBase  bool
)

var rootCmd = &cobra.Command{
	Use:   "overlay",
	Short: "Inspect layered key/value documents",
	Long: `Loads an overlay document (JSON or YAML) and reads it through the root
view or a sibling view identified by --view.

Combined values use --combiner (replace, merge) or an expression given with
--engine and --expr, where the expression sees base and override.

Example:
  overlay --file settings.yaml --view 6f1c... get theme
  overlay --file limits.json --engine expr --expr "base + override" list`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return nil
		}
		if !verbose {
			logger = zap.NewNop()
			return nil
		}
		built, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = built
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every key with its combined value",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print the combined value of a key",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var traceCmd = &cobra.Command{
	Use:   "trace [key]",
	Short: "Explain how a key resolved (base, override, combined) as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrace,
}

var setCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Write an override (or the base with --base) and save the document",
	Long: `Values are parsed as YAML scalars or flow collections, so 3, true,
"text" and {a: 1} keep their types.`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

var newViewCmd = &cobra.Command{
	Use:   "new-view",
	Short: "Print a fresh view identity for use with --view",
	Args:  cobra.NoArgs,
	RunE:  runNewView,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&file, "file", "f", "", "Overlay document (.json, .yaml, .yml)")
	rootCmd.PersistentFlags().StringVar(&engine, "engine", "", "Expression engine for --expr (expr, cel, js)")
	rootCmd.PersistentFlags().StringVar(&expr, "expr", "", "Combine expression over base and override")
	rootCmd.PersistentFlags().StringVar(&combiner, "combiner", "replace", "Built-in combiner (replace, merge)")
	rootCmd.PersistentFlags().StringVar(&viewID, "view", "", "Sibling view identity (default: root view)")
	setCmd.Flags().BoolVar(&setBase, "base", false, "Write the shared base value instead of an override")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(newViewCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
