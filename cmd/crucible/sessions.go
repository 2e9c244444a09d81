package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cruciblehq/crucible/internal/config"
	"github.com/cruciblehq/crucible/internal/storage"
	"github.com/cruciblehq/crucible/internal/storage/sqlite"
)

var (
	limitFlag    int
	exportFormat string
	exportOutput string
	forceFlag    bool
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session", "s"},
	Short:   "Manage console sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show session details and run history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session as markdown or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsExport,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd, sessionsExportCmd)

	sessionsListCmd.Flags().IntVar(&limitFlag, "limit", 20, "Max sessions to show")

	sessionsExportCmd.Flags().StringVar(&exportFormat, "format", "md", "Export format: md or json")
	sessionsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")

	sessionsDeleteCmd.Flags().BoolVar(&forceFlag, "force", false, "Skip confirmation")
}

func openStore() (storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return sqlite.Open(cfg.Storage.DBPath)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.ListSessions(context.Background(), storage.SessionListOptions{Limit: limitFlag})
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	// Header
	fmt.Printf("%-10s %-44s %s\n", "ID", "TITLE", "UPDATED")
	fmt.Println(strings.Repeat("─", 68))

	for _, s := range sessions {
		title := s.Title
		if len(title) > 42 {
			title = title[:42] + ".."
		}
		if title == "" {
			title = "(untitled)"
		}

		fmt.Printf("%-10s %-44s %s\n", s.ID[:8], title, timeAgo(s.UpdatedAt))
	}

	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("Session:  %s\n", sess.ID)
	fmt.Printf("Title:    %s\n", sess.Title)
	fmt.Printf("Created:  %s\n", sess.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated:  %s\n", sess.UpdatedAt.Format(time.RFC3339))

	records, err := store.LoadRecords(ctx, sess.ID)
	if err != nil {
		return err
	}

	fmt.Printf("\nRuns: %d\n", len(records))
	fmt.Println(strings.Repeat("─", 60))

	for _, rec := range records {
		fmt.Printf("\n\033[36m>> run %d\033[0m\n%s\n", rec.Seq, rec.Source)
		if rec.Success {
			fmt.Printf("\033[32m%s\033[0m\n", truncate(rec.Output, 400))
		} else {
			fmt.Printf("\033[31m%s\033[0m\n", truncate(rec.Trace, 400))
		}
		for _, fig := range rec.Figures {
			fmt.Printf("  \033[90m[figure %d: %s]\033[0m\n", fig.Seq, fig.Kind)
		}
	}

	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
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

	if !forceFlag {
		title := sess.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("Delete session %s - %q? [y/N] ", sess.ID[:8], title)
		var confirm string
		fmt.Scanln(&confirm)
		if strings.ToLower(confirm) != "y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := store.DeleteSession(ctx, sess.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s\n", sess.ID[:8])
	return nil
}

func runSessionsExport(cmd *cobra.Command, args []string) error {
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

	var output string
	switch exportFormat {
	case "json":
		data, err := storage.ExportJSON(sess, records)
		if err != nil {
			return err
		}
		output = string(data)
	default:
		output = storage.ExportMarkdown(sess, records)
	}

	if exportOutput != "" {
		return os.WriteFile(exportOutput, []byte(output), 0o644)
	}

	fmt.Print(output)
	return nil
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
