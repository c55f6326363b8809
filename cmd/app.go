package cmd

import (
	"context"
	"time"

	"github.com/AlexMakesC0de/anime-watch/browser"
	"github.com/AlexMakesC0de/anime-watch/extractor"
	"github.com/AlexMakesC0de/anime-watch/internal/cache"
	"github.com/AlexMakesC0de/anime-watch/key"
	"github.com/AlexMakesC0de/anime-watch/mapping"
	"github.com/AlexMakesC0de/anime-watch/match"
	"github.com/AlexMakesC0de/anime-watch/mirror"
	"github.com/AlexMakesC0de/anime-watch/network"
	"github.com/AlexMakesC0de/anime-watch/provider"
	"github.com/AlexMakesC0de/anime-watch/proxy"
	"github.com/AlexMakesC0de/anime-watch/stream"
	"github.com/AlexMakesC0de/anime-watch/where"
	"github.com/spf13/viper"
)

// app is the process-wide object graph behind the fetch command.
type app struct {
	mirror   *mirror.Resolver
	provider *provider.Client
	mappings *mapping.Cache
	engine   *browser.Engine
	proxy    *proxy.Server
	service  *stream.Service
}

func newMirror() *mirror.Resolver {
	return mirror.New(
		viper.GetStringSlice(key.ProviderMirrors),
		viper.GetStringSlice(key.ProviderFingerprints),
		network.Chrome,
		viper.GetDuration(key.MirrorProbeTimeout),
	)
}

func newMappings() *mapping.Cache {
	return mapping.New(where.Mappings())
}

// newApp wires every component and starts the proxy.
func newApp() (*app, error) {
	a := &app{
		mirror:   newMirror(),
		mappings: newMappings(),
		engine:   browser.New(browser.OptionsFromConfig()),
		proxy:    proxy.New(proxy.OptionsFromConfig()),
	}

	if err := a.proxy.Start(); err != nil {
		return nil, err
	}

	searches := cache.New(where.Searches(), cache.TTL)
	go searches.CollectGarbage()

	a.provider = provider.New(a.mirror, network.Chrome).WithCache(searches)

	x := extractor.New(a.provider, extractor.EnginePages(a.engine), a.proxy.Wrap, extractor.TimingFromConfig())

	a.service = stream.NewService(stream.Deps{
		Searcher:  a.provider,
		Extractor: x,
		Mappings:  a.mappings,
		Mirror:    a.mirror,
		Proxy:     a.proxy,
		Session:   a.engine,
		Weights:   match.WeightsFromConfig(),
	})

	return a, nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = a.proxy.Close(ctx)
	a.engine.Close()
}
