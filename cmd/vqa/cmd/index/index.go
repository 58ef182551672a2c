package index

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"video-qa/cmd/vqa/cmd/cli"
	"video-qa/internal/app/descriptor"
	"video-qa/internal/app/progress"
)

var (
	videoID     string
	descriptors string
	noProgress  bool
)

func init() {
	buildCmd.Flags().StringVarP(&videoID, "video", "v", "", "video id the index is stored under")
	buildCmd.Flags().StringVarP(&descriptors, "descriptors", "d", "",
		"analysis JSON with one descriptor per frame, example: ./data/movie/analysis.json")
	buildCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	buildCmd.MarkFlagRequired("video")
	buildCmd.MarkFlagRequired("descriptors")

	existsCmd.Flags().StringVarP(&videoID, "video", "v", "", "video id to check")
	existsCmd.MarkFlagRequired("video")

	Cmd.AddCommand(buildCmd)
	Cmd.AddCommand(existsCmd)
}

// Cmd groups the index subcommands
var Cmd = &cobra.Command{
	Use:   "index",
	Short: "Build or inspect a video's per-role indexes",
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed a video's frame descriptors and commit its technical, content and production indexes",
	Long: `Embed a video's frame descriptors and commit its indexes

- Read the analysis JSON and derive any missing per-role texts
- Skip frames that have no text for some role
- Embed every role in batches and commit all artifacts as one unit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		frames, err := descriptor.LoadFile(descriptors)
		if err != nil {
			return err
		}

		session, err := cli.Bootstrap(ctx, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer session.Close()

		manager := progress.NewManager(progress.Config{
			Enabled: !noProgress && !cli.Verbose,
			Writer:  cmd.ErrOrStderr(),
		})
		bar := manager.CreateBar(len(frames), "Embedding "+videoID)

		report, err := session.Runtime.Engine.BuildIndex(ctx, videoID, frames, bar.Track())
		if err != nil {
			bar.Abort()
			manager.Wait()
			return err
		}
		bar.Complete()
		manager.Wait()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Indexed %d/%d frames of %s (dim %d) in %s\n",
			report.FramesIndexed, report.FramesTotal, report.VideoID, report.Dimension, report.Duration.Round(time.Millisecond))
		if report.FramesSkipped > 0 {
			fmt.Fprintf(out, "Skipped %d frame(s) without text for every role: %s\n",
				report.FramesSkipped, joinInts(report.SkippedSeconds))
		}
		return nil
	},
}

var existsCmd = &cobra.Command{
	Use:   "exists",
	Short: "Report whether a complete index set exists for a video",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		session, err := cli.Bootstrap(ctx, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer session.Close()

		exists, err := session.Runtime.Engine.IndexExists(ctx, videoID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%s: no index", videoID)
		}

		m, err := session.Runtime.Engine.Manifest(ctx, videoID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames, dim %d, %s/%s, built %s\n",
			videoID, m.Count, m.Dimension, m.Provider, m.Model, m.BuiltAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func joinInts(xs []int) string {
	return strings.Join(lo.Map(xs, func(x int, _ int) string { return strconv.Itoa(x) }), ", ")
}
