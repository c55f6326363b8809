package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/AlexMakesC0de/anime-watch/util"
	"github.com/AlexMakesC0de/anime-watch/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

// clearTarget is an on-disk artifact the clear command can remove.
type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	location func() string
}

var clearTargets = []clearTarget{
	{"mappings file", "mappings", mo.Some("m"), where.Mappings},
	{"search cache", "cache", mo.Some("c"), where.Searches},
	{"browser sessions", "sessions", mo.Some("s"), where.Sessions},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

// clearPath deletes path. A path that is already gone counts as cleared.
func clearPath(path string) error {
	if err := util.Delete(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear %s: %w", path, err)
	}
	return nil
}

// clearCmd removes cached and persisted artifacts.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached searches, matched mappings or browser sessions",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.argLong)) {
				continue
			}

			anyCleared = true
			handleErr(clearPath(target.location()))
			fmt.Printf("%s %s cleared\n", successMark, util.Capitalize(target.name))
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
