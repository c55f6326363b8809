// Package main is the entry point of anime-watch.
package main

import (
	"github.com/AlexMakesC0de/anime-watch/cmd"
	"github.com/AlexMakesC0de/anime-watch/config"
	"github.com/AlexMakesC0de/anime-watch/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
