// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     cmd
// Description: CLI command for the dictation service
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dikta/dikta/internal/dictation/app"
)

var (
	dictatePolish   bool
	dictateLanguage string
	dictateDevice   string
)

var dictateCmd = &cobra.Command{
	Use:   "dictate",
	Short: "Run the dictation service",
	Long: `Runs the dictation service until interrupted.

The configured hotkey (default Ctrl+Shift+D) toggles recording. While
recording, speech is transcribed utterance by utterance; stopping
delivers the assembled transcript to the configured outputs.

Prerequisites:
  - PortAudio installed
  - A transcription backend (see 'provider' section of the config)
  - Ollama running, when polish is enabled

Examples:
  dikta dictate
  dikta dictate --polish
  dikta dictate --language de --device "USB Microphone"`,
	RunE: runDictate,
}

func init() {
	dictateCmd.Flags().BoolVar(&dictatePolish, "polish", false, "request AI polish for dictated text")
	dictateCmd.Flags().StringVar(&dictateLanguage, "language", "", "language hint (e.g. en, de, auto)")
	dictateCmd.Flags().StringVar(&dictateDevice, "device", "", "audio input device name")
	rootCmd.AddCommand(dictateCmd)
}

func runDictate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("loading config", err)
		return err
	}

	polishRequested, err := app.LoadSettings(&cfg)
	if err != nil {
		printError("loading settings", err)
	}

	if dictateLanguage != "" {
		cfg.General.Language = dictateLanguage
	}
	if dictateDevice != "" {
		cfg.Audio.InputDevice = dictateDevice
	}
	if dictatePolish {
		polishRequested = true
	}

	application, err := app.New(cfg)
	if err != nil {
		printError("starting dikta", err)
		return err
	}
	application.SetPolishRequested(polishRequested)

	fmt.Printf("dikta - press %s to toggle dictation, Ctrl+C to quit\n", cfg.General.Shortcut)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}
