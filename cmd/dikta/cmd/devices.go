// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     cmd
// Description: CLI command for listing audio input devices
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dikta/dikta/internal/dictation/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long: `Lists the available audio input devices.

Use a device name with 'dictate --device' or in the config file's
audio.input_device setting.`,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	devices, err := audio.ListInputDevices()
	if err != nil {
		printError("listing devices", err)
		return err
	}

	if len(devices) == 0 {
		fmt.Println("No input devices found")
		return nil
	}

	fmt.Println("Input devices:")
	for _, d := range devices {
		marker := "  "
		if d.IsDefault {
			marker = "* "
		}
		fmt.Printf("%s%-40s %d ch, %.0f Hz\n", marker, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
	}
	fmt.Println("\n* = system default")

	return nil
}
