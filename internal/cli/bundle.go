package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	bundleChat       string
	bundleChatFile   string
	bundleAggressive bool
	bundleOutput     string
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Build LLM context bundles",
	Long: `Build a context bundle from a chat transcript and source files.

Examples:
  tokentrim bundle raw --chat-file chat.txt ./src
  tokentrim bundle compressed --aggressive ./src -o context.txt`,
}

var bundleRawCmd = &cobra.Command{
	Use:   "raw <file|dir|-> [...]",
	Short: "Concatenate chat and files unchanged",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBundle(cmd, args, false)
	},
}

var bundleCompressedCmd = &cobra.Command{
	Use:   "compressed <file|dir|-> [...]",
	Short: "Bundle the best compressed level of each file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBundle(cmd, args, true)
	},
}

func init() {
	rootCmd.AddCommand(bundleCmd)
	bundleCmd.AddCommand(bundleRawCmd)
	bundleCmd.AddCommand(bundleCompressedCmd)

	bundleCmd.PersistentFlags().StringVar(&bundleChat, "chat", "", "chat transcript text")
	bundleCmd.PersistentFlags().StringVar(&bundleChatFile, "chat-file", "", "read the chat transcript from a file")
	bundleCmd.PersistentFlags().StringVarP(&bundleOutput, "output", "o", "", "write the bundle to a file")
	bundleCompressedCmd.Flags().BoolVarP(&bundleAggressive, "aggressive", "a", false, "aggressive minification")
}

func runBundle(cmd *cobra.Command, args []string, compressed bool) error {
	cfg := GetConfig()
	svc := newServices(cfg, nil)

	chat := bundleChat
	if bundleChatFile != "" {
		data, err := os.ReadFile(bundleChatFile)
		if err != nil {
			return fmt.Errorf("failed to read chat file: %w", err)
		}
		chat = string(data)
	}

	files, err := loadSources(svc, args, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	var out string
	if compressed {
		out = svc.bundle.CompressedBundle(cmd.Context(), chat, files, bundleAggressive || cfg.Minify.Aggressive, time.Now())
	} else {
		out = svc.bundle.RawBundle(chat, files, time.Now())
	}
	return writeOutput(cmd.OutOrStdout(), bundleOutput, []byte(out+"\n"))
}
