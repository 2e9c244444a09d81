package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cruciblehq/crucible/internal/assist"
	"github.com/cruciblehq/crucible/internal/config"
	"github.com/cruciblehq/crucible/internal/history"
)

var explainCmd = &cobra.Command{
	Use:   "explain <session-id> [seq]",
	Short: "Explain a failed run using an LLM",
	Long: `Ask a configured LLM provider to explain a failed run in plain language.

With no sequence number, the most recent failed run is explained.

Examples:
  crucible explain 3f2a
  crucible explain 3f2a 7 --provider ollama`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	provider, err := cfg.Provider(providerFlag)
	if err != nil {
		return err
	}
	model := modelFlag
	if model == "" {
		model = provider.Models["default"]
	}
	if model == "" {
		return fmt.Errorf("no model configured for provider (set models.default or pass --model)")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	sess, err := store.GetSession(ctx, args[0])
	if err != nil {
		return err
	}

	records, err := store.LoadRecords(ctx, sess.ID)
	if err != nil {
		return err
	}

	var target *history.Record
	if len(args) == 2 {
		seq, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid sequence number %q", args[1])
		}
		for i := range records {
			if records[i].Seq == seq {
				target = &records[i]
			}
		}
		if target == nil {
			return fmt.Errorf("no run %d in session %s", seq, sess.ID[:8])
		}
	} else {
		for i := len(records) - 1; i >= 0; i-- {
			if !records[i].Success {
				target = &records[i]
				break
			}
		}
		if target == nil {
			return fmt.Errorf("session %s has no failed runs", sess.ID[:8])
		}
	}

	fmt.Printf("Run %d:\n%s\n\n%s\n\n", target.Seq, target.Source, target.Trace)

	explainer := assist.New(provider.BaseURL, provider.APIKey, model)
	explanation, err := explainer.Explain(ctx, *target)
	if err != nil {
		return err
	}

	fmt.Printf("\033[32m%s\033[0m\n", explanation)
	return nil
}
