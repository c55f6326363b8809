package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlexMakesC0de/anime-watch/match"
	"github.com/AlexMakesC0de/anime-watch/source"
	"github.com/AlexMakesC0de/anime-watch/style"
	"github.com/AlexMakesC0de/anime-watch/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().Int("id", 0, "Catalogue id of the anime")
	fetchCmd.Flags().StringP("title", "t", "", "Title of the anime")
	fetchCmd.Flags().StringP("alt", "a", "", "Alternative title, usually the romaji one")
	fetchCmd.Flags().IntP("episode", "e", 1, "Episode number")
	fetchCmd.Flags().String("audio", string(match.Sub), "Audio track, sub or dub")
	fetchCmd.Flags().BoolP("json", "j", false, "Print the streaming info as JSON")
	fetchCmd.Flags().BoolP("serve", "s", false, "Keep the proxy running until interrupted")

	lo.Must0(fetchCmd.MarkFlagRequired("id"))
	lo.Must0(fetchCmd.MarkFlagRequired("title"))
	lo.Must0(fetchCmd.RegisterFlagCompletionFunc("audio", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{string(match.Sub), string(match.Dub)}, cobra.ShellCompDirectiveNoFileComp
	}))

	fetchCmd.SetOut(os.Stdout)
}

// fetchCmd resolves one episode into proxied sources.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Resolve an episode into playable, locally proxied sources",
	Example: `  anime-watch fetch --id 16498 --title "Attack on Titan" --alt "Shingeki no Kyojin" -e 3
  anime-watch fetch --id 16498 --title "Attack on Titan" -e 3 --audio dub --serve`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			id      = lo.Must(cmd.Flags().GetInt("id"))
			title   = lo.Must(cmd.Flags().GetString("title"))
			alt     = lo.Must(cmd.Flags().GetString("alt"))
			episode = lo.Must(cmd.Flags().GetInt("episode"))
			audio   = match.ParseAudio(lo.Must(cmd.Flags().GetString("audio")))
			asJson  = lo.Must(cmd.Flags().GetBool("json"))
			serve   = lo.Must(cmd.Flags().GetBool("serve"))
		)

		if episode < 1 {
			handleErr(errors.New("episode must be positive"))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp()
		handleErr(err)
		defer a.Close()

		info, err := a.service.FetchEpisodeSources(ctx, id, title, alt, episode, audio)
		if err != nil {
			a.Close()
			handleErr(err)
		}

		if asJson {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			lo.Must0(encoder.Encode(info))
		} else {
			printStreamingInfo(cmd, info)
		}

		if !serve {
			return
		}

		cmd.PrintErrf("%s proxy serving on %s, press Ctrl+C to stop\n", successMark, style.Fg(style.Cyan)(a.proxy.BaseURL()))
		<-ctx.Done()
	},
}

func printStreamingInfo(cmd *cobra.Command, info *source.StreamingInfo) {
	cmd.Printf("%s %s\n", successMark, util.Quantify(len(info.Sources), "source", "sources"))

	for _, s := range info.Sources {
		kind := "direct"
		if s.IsM3U8 {
			kind = "hls"
		}
		cmd.Printf("  %s %s %s\n", style.Fg(style.Purple)(fmt.Sprintf("%-8s", s.Quality)), style.Faint(kind), s.URL)
	}

	cmd.Printf("%s %s\n", style.Fg(style.Blue)("Referer:"), info.Referer())
	if embed, ok := info.EmbedURL.Get(); ok {
		cmd.Printf("%s   %s\n", style.Fg(style.Blue)("Embed:"), embed)
	}
}
