package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/AlexMakesC0de/anime-watch/mapping"
	"github.com/AlexMakesC0de/anime-watch/stream"
	"github.com/AlexMakesC0de/anime-watch/style"
	"github.com/AlexMakesC0de/anime-watch/util"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(mappingCmd)
}

// mappingCmd groups commands over the catalogue-to-slug mapping store.
var mappingCmd = &cobra.Command{
	Use:     "mapping",
	Aliases: []string{"mappings"},
	Short:   "Inspect and reset matched provider slugs",
}

func init() {
	mappingCmd.AddCommand(mappingListCmd)
	mappingListCmd.Flags().StringP("filter", "f", "", "Fuzzy filter on the slug")
	mappingListCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")

	mappingListCmd.SetOut(os.Stdout)
}

// filterMappings keeps rows whose slug fuzzy-matches query.
func filterMappings(rows []mapping.ProviderMapping, query string) []mapping.ProviderMapping {
	if query == "" {
		return rows
	}
	return lo.Filter(rows, func(m mapping.ProviderMapping, _ int) bool {
		return fuzzy.MatchNormalizedFold(query, m.Slug)
	})
}

var mappingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted mappings",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			filter = lo.Must(cmd.Flags().GetString("filter"))
			asJson = lo.Must(cmd.Flags().GetBool("json"))
			rows   = filterMappings(newMappings().All(), filter)
		)

		if asJson {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(rows))
			return
		}

		if len(rows) == 0 {
			cmd.Println(style.Faint("no mappings"))
			return
		}

		for _, m := range rows {
			cmd.Printf(
				"%s %s %s %s\n",
				style.Fg(style.Purple)(fmt.Sprintf("%8d", m.CatalogueID)),
				style.Fg(style.Blue)(m.Provider),
				style.Fg(style.Yellow)(m.Slug),
				style.Faint(m.CachedAt.Format("2006-01-02 15:04")),
			)
		}
		cmd.Println(style.Faint(util.Quantify(len(rows), "mapping", "mappings")))
	},
}

func init() {
	mappingCmd.AddCommand(mappingClearCmd)
	mappingClearCmd.Flags().Int("id", 0, "Catalogue id whose mappings are removed")
	lo.Must0(mappingClearCmd.MarkFlagRequired("id"))
}

var mappingClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the matched slugs of a catalogue id, forcing a new match on the next fetch",
	Run: func(cmd *cobra.Command, args []string) {
		id := lo.Must(cmd.Flags().GetInt("id"))

		service := stream.NewService(stream.Deps{Mappings: newMappings()})
		handleErr(service.ClearProviderMapping(id))

		fmt.Printf("%s cleared mappings of %s\n", successMark, style.Fg(style.Purple)(fmt.Sprint(id)))
	},
}

func init() {
	rootCmd.AddCommand(mirrorCmd)
	mirrorCmd.SetOut(os.Stdout)
}

// mirrorCmd probes the candidate mirrors and prints the live origin.
var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Probe provider mirrors and print the live one",
	Run: func(cmd *cobra.Command, args []string) {
		resolver := newMirror()

		origin, err := resolver.Resolve(context.Background())
		handleErr(err)

		if resolver.Active().IsAbsent() {
			cmd.Printf("%s no mirror passed the probe, falling back to %s\n", failMark, style.Fg(style.Yellow)(origin))
			return
		}
		cmd.Printf("%s %s\n", successMark, style.Fg(style.Green)(origin))
	},
}
