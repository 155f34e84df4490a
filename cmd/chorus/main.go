// Command chorus extracts the chorus of a song, either from a file on disk
// or as an HTTP service.
//
// Usage:
//
//	chorus extract -d 30 -q high song.mp3 chorus.wav
//	chorus extract -v -q low song.flac chorus.wav
//	chorus serve --port 8000
//
// Settings may also come from the environment or a .env file in the
// working directory; flags take precedence.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chorus",
		Short:        "Extract the chorus of a song",
		Long:         `Finds the most repeated section of a song and renders it as a WAV clip.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// A missing .env is normal.
			_ = godotenv.Load()
		},
	}
	root.AddCommand(newExtractCmd(), newServeCmd())
	return root
}
