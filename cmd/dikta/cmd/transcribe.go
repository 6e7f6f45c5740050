// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     cmd
// Description: CLI command for one-shot file transcription
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dikta/dikta/internal/dictation/audio"
	"github.com/dikta/dikta/internal/dictation/provider"
)

var transcribeLanguage string

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file.wav>",
	Short: "Transcribe a WAV file",
	Long: `Transcribes a PCM16 WAV file using the configured provider
and prints the text.

Examples:
  dikta transcribe recording.wav
  dikta transcribe --language de meeting.wav`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().StringVar(&transcribeLanguage, "language", "", "language hint (e.g. en, de, auto)")
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("loading config", err)
		return err
	}
	if transcribeLanguage != "" {
		cfg.General.Language = transcribeLanguage
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		printError("reading file", err)
		return err
	}

	samples, sampleRate, err := audio.DecodeWAV(data)
	if err != nil {
		printError("decoding WAV", err)
		return err
	}

	tr, err := provider.New(cfg.SessionConfig().Provider)
	if err != nil {
		printError("creating provider", err)
		return err
	}
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := tr.Transcribe(ctx, provider.Request{
		Samples:    samples,
		SampleRate: sampleRate,
		Language:   cfg.General.Language,
	})
	if err != nil {
		printError("transcribing", err)
		return err
	}

	fmt.Println(result.Text)
	return nil
}
