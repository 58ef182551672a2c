package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"video-qa/cmd/vqa/cmd/cli"
	"video-qa/internal/app/model"
)

var (
	videoID  string
	roleName string
	topK     int
	multi    bool
	asJSON   bool
)

func addQueryFlags(c *cobra.Command) {
	c.Flags().StringVarP(&videoID, "video", "v", "", "video id to search")
	c.Flags().StringVarP(&roleName, "role", "r", "content",
		"technical|content|production, or the persona director|actor|producer")
	c.Flags().IntVarP(&topK, "top-k", "k", 0, "number of moments to return (0 uses the role default)")
	c.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	c.MarkFlagRequired("video")
}

func init() {
	addQueryFlags(Cmd)
	Cmd.Flags().BoolVarP(&multi, "multi", "m", false, "expand the query into variants and merge their results")
	addQueryFlags(AskCmd)
}

// Cmd represents the search command
var Cmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find the moments of a video that match a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := model.ParseRole(roleName)
		if err != nil {
			return err
		}
		q := strings.Join(args, " ")

		session, err := cli.Bootstrap(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer session.Close()

		engine := session.Runtime.Engine
		var results []model.SearchResult
		if multi {
			results, err = engine.SearchMulti(cmd.Context(), videoID, q, role, topK)
		} else {
			results, err = engine.Search(cmd.Context(), videoID, q, role, topK)
		}
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), results)
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No moments found.")
			return nil
		}
		for _, r := range results {
			printMoment(cmd.OutOrStdout(), r)
		}
		return nil
	},
}

// AskCmd represents the ask command
var AskCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question about a video from its most relevant moments",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := model.ParseRole(roleName)
		if err != nil {
			return err
		}

		session, err := cli.Bootstrap(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer session.Close()

		bundle, err := session.Runtime.Engine.SearchWithAnswer(cmd.Context(), videoID, strings.Join(args, " "), role, topK)
		if err != nil {
			return err
		}

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), bundle)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, bundle.Answer)
		if len(bundle.RelevantMoments) > 0 {
			fmt.Fprintf(out, "\nRelevant moments (%d found):\n", bundle.FoundCount)
			for _, r := range bundle.RelevantMoments {
				printMoment(out, r)
			}
		}
		return nil
	},
}

func printMoment(w io.Writer, r model.SearchResult) {
	fmt.Fprintf(w, "[%s] score=%.3f %s  %s\n", r.Timestamp, r.Score, r.SceneID, r.FramePath)
	if r.SceneSummary != "" {
		fmt.Fprintf(w, "    %s\n", r.SceneSummary)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
