// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     cmd
// Description: CLI command for browsing session history
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dikta/dikta/internal/dictation/history"
)

var (
	historyLimit int
	historyFull  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past dictation sessions",
	Long: `Shows recent dictation sessions from the history database,
newest first.

Examples:
  dikta history
  dikta history --limit 50 --full`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of sessions to show")
	historyCmd.Flags().BoolVar(&historyFull, "full", false, "print full transcripts")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("loading config", err)
		return err
	}

	store, err := history.Open(cfg.HistoryStoreConfig())
	if err != nil {
		printError("opening history", err)
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records, err := store.Recent(ctx, historyLimit)
	if err != nil {
		printError("reading history", err)
		return err
	}

	if len(records) == 0 {
		fmt.Println("No sessions recorded yet")
		return nil
	}

	for _, rec := range records {
		flags := ""
		if rec.Polished {
			flags += " polished"
		}
		if rec.BatchMode {
			flags += " batch"
		}
		if rec.FailedChunks > 0 {
			flags += fmt.Sprintf(" %d failed", rec.FailedChunks)
		}

		fmt.Printf("%s  %s  %d chunks%s\n",
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Duration.Round(time.Second), rec.Chunks, flags)

		text := rec.Transcript
		if !historyFull {
			text = truncateTranscript(text, 120)
		}
		fmt.Printf("    %s\n", text)
	}

	return nil
}

// truncateTranscript shortens a preview to max runes, never splitting a
// multi-byte character
func truncateTranscript(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
