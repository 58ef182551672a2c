package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"video-qa/cmd/vqa/cmd/cli"
	"video-qa/cmd/vqa/cmd/index"
	"video-qa/cmd/vqa/cmd/search"
	"video-qa/cmd/vqa/cmd/serve"
	"video-qa/cmd/vqa/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vqa",
	Short: "Ask questions about a video and get back the moments that answer them",
	Long: `Ask questions about a video and get back the moments that answer them.
- Index a video's per-second frame descriptions once per video
- Search it from a director, actor or producer point of view
- Get a short grounded answer with the matching timestamps`,
	SilenceUsage:     true,
	TraverseChildren: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(index.Cmd)
	rootCmd.AddCommand(search.Cmd)
	rootCmd.AddCommand(search.AskCmd)
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&cli.Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&cli.ConfigPath, "config", "c", "",
		"engine config file (default is $VQA_CONFIG_PATH or ~/.video-qa/config.yaml)")
}
