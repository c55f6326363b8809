// Package cmd implements the command-line host of anime-watch.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlexMakesC0de/anime-watch/constant"
	"github.com/AlexMakesC0de/anime-watch/key"
	"github.com/AlexMakesC0de/anime-watch/log"
	"github.com/AlexMakesC0de/anime-watch/style"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	successMark = style.Fg(style.Green)("✓")
	failMark    = style.Fg(style.Red)("✗")
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().Bool("headful", false, "Show the browser window while extracting")

	rootCmd.PersistentFlags().String("session", "", "Name of the persistent browser session")
	lo.Must0(viper.BindPFlag(key.BrowserSession, rootCmd.PersistentFlags().Lookup("session")))
}

// rootCmd defines the entry point for the application.
var rootCmd = &cobra.Command{
	Use:   constant.App,
	Short: "Resolve anime episodes into locally proxied streams",
	Long: style.Bold(constant.App) + "\n" +
		style.New().Italic(true).Foreground(style.HiRed).Render("    - Resolve anime episodes into locally proxied streams"),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("headful")) {
			viper.Set(key.BrowserHeadless, false)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", failMark, strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
