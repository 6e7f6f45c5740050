// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     cmd
// Description: CLI version command
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags
var Version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dikta v%s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
