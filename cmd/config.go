package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlexMakesC0de/anime-watch/config"
	"github.com/AlexMakesC0de/anime-watch/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

func completionConfigKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

// lookupField resolves k or fails with the closest known key.
func lookupField(k string) config.Field {
	field, ok := config.Default[k]
	if !ok {
		handleErr(fmt.Errorf(
			"%w %s, did you mean %s?",
			config.ErrUnknownKey,
			style.Fg(style.Red)(k),
			style.Fg(style.Yellow)(config.Closest(k)),
		))
	}
	return field
}

// persist writes the in-memory settings, creating the config file on first use.
func persist() error {
	err := viper.WriteConfig()
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		return viper.SafeWriteConfig()
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and tune mirrors, matching, extraction and proxy settings",
}

func init() {
	configCmd.AddCommand(configInfoCmd)
	configInfoCmd.Flags().StringSliceP("key", "k", nil, "Only describe these keys")
	configInfoCmd.Flags().StringP("section", "s", "", "Only describe keys of a section, e.g. extractor or proxy")
	configInfoCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	_ = configInfoCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
	_ = configInfoCmd.RegisterFlagCompletionFunc("section", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return sections(), cobra.ShellCompDirectiveNoFileComp
	})

	configInfoCmd.SetOut(os.Stdout)
}

// sections lists the key prefixes before the first dot.
func sections() []string {
	names := lo.Uniq(lo.Map(lo.Keys(config.Default), func(k string, _ int) string {
		section, _, _ := strings.Cut(k, ".")
		return section
	}))
	slices.Sort(names)
	return names
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe configuration keys with their current and default values",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			keys    = lo.Must(cmd.Flags().GetStringSlice("key"))
			section = lo.Must(cmd.Flags().GetString("section"))
			asJson  = lo.Must(cmd.Flags().GetBool("json"))
			fields  = lo.Values(config.Default)
		)

		if len(keys) > 0 {
			fields = lo.Map(keys, func(k string, _ int) config.Field { return lookupField(k) })
		}
		if section != "" {
			fields = lo.Filter(fields, func(f config.Field, _ int) bool {
				return strings.HasPrefix(f.Key, section+".")
			})
		}

		slices.SortFunc(fields, func(a, b config.Field) int {
			return strings.Compare(a.Key, b.Key)
		})

		if asJson {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(lo.ToSlicePtr(fields)))
			return
		}

		for i := range fields {
			if i > 0 {
				cmd.Println()
			}
			cmd.Println(fields[i].Pretty())
		}
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configGetCmd.SetOut(os.Stdout)
}

var configGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Print the effective value of a key",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		field := lookupField(args[0])
		cmd.Println(viper.Get(field.Key))
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>...",
	Short: "Validate and persist a new value for a key",
	Long: "Validate and persist a new value for a key.\n" +
		"List keys such as provider.mirrors take one value per argument, in priority order.",
	Example: `  anime-watch config set extractor.ceiling 40s
  anime-watch config set provider.mirrors https://anitaku.to https://gogoanime3.co`,
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		field := lookupField(args[0])

		value, err := config.Parse(field.Key, args[1:])
		handleErr(err)

		viper.Set(field.Key, value)
		handleErr(persist())

		fmt.Printf(
			"%s set %s to %s\n",
			successMark,
			style.Fg(style.Purple)(field.Key),
			style.Fg(style.Yellow)(fmt.Sprint(value)),
		)
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)
	configResetCmd.Flags().BoolP("all", "a", false, "Restore every key")
}

var configResetCmd = &cobra.Command{
	Use:               "reset [key]",
	Short:             "Restore a key, or every key, to its default",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		all := lo.Must(cmd.Flags().GetBool("all"))

		switch {
		case all && len(args) == 0:
			for k, field := range config.Default {
				viper.Set(k, field.Value)
			}
		case !all && len(args) == 1:
			field := lookupField(args[0])
			viper.Set(field.Key, field.Value)
		default:
			handleErr(errors.New("pass either a key or --all"))
		}

		handleErr(persist())

		if all {
			fmt.Printf("%s reset all config values\n", successMark)
			return
		}
		fmt.Printf(
			"%s reset %s to %s\n",
			successMark,
			style.Fg(style.Purple)(args[0]),
			style.Fg(style.Yellow)(fmt.Sprint(config.Default[args[0]].Value)),
		)
	},
}
