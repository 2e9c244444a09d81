package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	providerFlag string
	modelFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "crucible",
	Short: "Crucible - Interactive snippet console",
	Long: `Crucible is an interactive console for running small snippets against
a capability-gated evaluator. Variables persist across runs within a session,
imports are checked against an allow-list, and every run is recorded.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "LLM provider for explanations (ollama, claude, gemini)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model to use (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
