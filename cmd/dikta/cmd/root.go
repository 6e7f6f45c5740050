package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dikta/dikta/internal/dictation/app"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dikta",
	Short: "dikta - desktop voice dictation",
	Long: `dikta turns speech into text on your desktop.

A global hotkey toggles recording; speech is segmented into utterances,
transcribed chunk by chunk while you keep talking, and the assembled
transcript lands on stdout, the clipboard, or both. An optional local
LLM pass cleans up punctuation and casing.

Commands:
  dictate     - run the dictation service (hotkey toggled)
  transcribe  - transcribe a WAV file
  devices     - list audio input devices
  history     - show past dictation sessions`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/dikta/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration honoring the global flags
func loadConfig() (app.Config, error) {
	cfg, err := app.LoadConfig(cfgFile)
	if err != nil {
		return cfg, err
	}
	if verbose {
		cfg.General.LogLevel = "debug"
	}
	return cfg, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
