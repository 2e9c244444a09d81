package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/cruciblehq/crucible/internal/caps"
	"github.com/cruciblehq/crucible/internal/config"
	"github.com/cruciblehq/crucible/internal/engine"
	"github.com/cruciblehq/crucible/internal/history"
	"github.com/cruciblehq/crucible/internal/sandbox"
	"github.com/cruciblehq/crucible/internal/session"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive local console",
	Long: `Start an interactive snippet console in the terminal.

Variables persist across runs until /reset. A blank line submits the
snippet accumulated so far, so multi-line snippets work naturally.

Examples:
  crucible repl`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	registry := caps.Default()
	policy := cfg.Policy()
	eng := engine.New(registry)
	sess := session.New("local")

	fmt.Printf("Crucible - Interactive Console\n")
	fmt.Printf("Allowed capabilities: %s\n", strings.Join(cfg.Sandbox.Allow, ", "))
	fmt.Printf("Type /help for commands, /quit to exit\n\n")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36m>>\033[0m ",
		HistoryFile:     "/tmp/crucible_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	var pending []string
	for {
		if len(pending) > 0 {
			rl.SetPrompt("\033[36m..\033[0m ")
		} else {
			rl.SetPrompt("\033[36m>>\033[0m ")
		}

		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				pending = nil
				continue
			}
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}

		// A blank line submits the buffered snippet; otherwise keep buffering.
		if strings.TrimSpace(input) == "" {
			if len(pending) == 0 {
				continue
			}
			submit(sess, policy, eng, strings.Join(pending, "\n"))
			pending = nil
			continue
		}

		if len(pending) == 0 && strings.HasPrefix(strings.TrimSpace(input), "/") {
			if handleReplCommand(strings.TrimSpace(input), sess, registry) {
				continue
			}
		}

		pending = append(pending, input)
	}
}

func submit(sess *session.Session, policy sandbox.Policy, eng *engine.Engine, source string) {
	verdict, rec := sess.Submit(policy, eng, source)
	if !verdict.Allowed {
		fmt.Printf("\033[33mrejected: %s\033[0m\n\n", verdict.Reason)
		return
	}

	if rec.Success {
		fmt.Printf("%s\n", rec.Output)
	} else {
		fmt.Printf("\033[31m%s\033[0m\n", rec.Trace)
	}
	for _, fig := range rec.Figures {
		title := fig.Title
		if title == "" {
			title = fig.Kind
		}
		fmt.Printf("  [figure %d: %s, %d points]\n", fig.Seq, title, len(fig.Y))
	}
	fmt.Println()
}

func handleReplCommand(input string, sess *session.Session, registry *caps.Registry) bool {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/quit", "/exit", "/q":
		fmt.Println("Goodbye!")
		os.Exit(0)
	case "/reset":
		sess.Reset()
		fmt.Println("Session reset: namespace and history cleared.")
		fmt.Println()
	case "/history":
		records := sess.Ledger.List(history.OldestFirst)
		if len(records) == 0 {
			fmt.Println("No runs yet.")
		}
		for _, rec := range records {
			status := "ok"
			if !rec.Success {
				status = "failed"
			}
			first := strings.SplitN(rec.Source, "\n", 2)[0]
			fmt.Printf("  %3d  %-6s  %s\n", rec.Seq, status, first)
		}
		fmt.Println()
	case "/caps":
		for _, name := range registry.Names() {
			fmt.Printf("  %-10s %s\n", name, registry.Doc(name))
		}
		fmt.Println()
	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /help     - Show this help")
		fmt.Println("  /reset    - Clear variables and run history")
		fmt.Println("  /history  - List past runs")
		fmt.Println("  /caps     - List registered capabilities")
		fmt.Println("  /quit     - Exit")
		fmt.Println()
	default:
		fmt.Printf("Unknown command: %s (try /help)\n\n", input)
	}
	return true
}
