// Package browser drives the shared Chrome instance used for extraction.
//
// One Engine lives per process. It keeps a persistent, named profile on disk so
// anti-bot cookies survive between runs, opens at most one interception tab at a
// time, and replays media requests through the session.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/AlexMakesC0de/anime-watch/constant"
	"github.com/AlexMakesC0de/anime-watch/key"
	"github.com/AlexMakesC0de/anime-watch/log"
	"github.com/AlexMakesC0de/anime-watch/network"
	"github.com/AlexMakesC0de/anime-watch/where"
	"github.com/chromedp/cdproto/cdp"
	cdpnetwork "github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/spf13/viper"
)

// ErrClosed reports use of a closed engine.
var ErrClosed = errors.New("browser engine is closed")

// Options configures the engine.
type Options struct {
	Session   string
	Headless  bool
	ExecPath  string
	UserAgent string
	Blocklist []string
}

// OptionsFromConfig reads engine options from viper.
func OptionsFromConfig() Options {
	return Options{
		Session:   viper.GetString(key.BrowserSession),
		Headless:  viper.GetBool(key.BrowserHeadless),
		ExecPath:  viper.GetString(key.BrowserExecPath),
		UserAgent: constant.UserAgent,
		Blocklist: viper.GetStringSlice(key.BrowserBlocklist),
	}
}

// Engine owns the browser process and its root context.
type Engine struct {
	opts   Options
	client *http.Client

	mu          sync.Mutex
	root        context.Context
	rootCancel  context.CancelFunc
	allocCancel context.CancelFunc
	active      *Page
	closed      bool

	// serializes in-browser loads, which share the root tab's extra headers
	resourceMu sync.Mutex
}

// New creates an engine. Chrome is started on first use.
func New(opts Options) *Engine {
	if opts.Session == "" {
		opts.Session = "default"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = constant.UserAgent
	}
	return &Engine{opts: opts, client: network.Chrome}
}

func (e *Engine) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(where.BrowserProfile(e.opts.Session)),
		chromedp.UserAgent(e.opts.UserAgent),
		chromedp.Flag("headless", e.opts.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		// sub-frame requests must stay observable from the top-level target
		chromedp.Flag("disable-features", "IsolateOrigins,site-per-process"),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(1280, 720),
	)

	if e.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(e.opts.ExecPath))
	}
	return opts
}

// rootContext starts the browser if needed. Callers must hold e.mu.
func (e *Engine) rootContext() (context.Context, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if e.root != nil {
		return e.root, nil
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), e.allocatorOptions()...)
	root, rootCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(root); err != nil {
		rootCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	log.Infof("browser started with session %q", e.opts.Session)
	e.root, e.rootCancel, e.allocCancel = root, rootCancel, allocCancel
	return root, nil
}

// Open tears down the previous page and opens a new intercepting tab that injects referer.
func (e *Engine) Open(ctx context.Context, referer string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		e.active.Close()
		e.active = nil
	}

	root, err := e.rootContext()
	if err != nil {
		return nil, err
	}

	page, err := openPage(root, referer, e.opts.Blocklist)
	if err != nil {
		return nil, err
	}

	e.active = page
	return page, nil
}

// Fetch replays a GET for target inside the session. Playlists are loaded by Chrome
// itself. Everything else, and any playlist Chrome fails to load, goes through the
// replay client with the session's cookies and user agent.
func (e *Engine) Fetch(ctx context.Context, target string, header http.Header) (*http.Response, error) {
	e.mu.Lock()
	root, err := e.rootContext()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if header == nil {
		header = http.Header{}
	}

	if loadableInBrowser(target, header) {
		resp, err := e.loadResource(ctx, root, target, header)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Debugf("in-browser load of %s failed, replaying: %v", target, err)
	}

	cookies, err := cdpnetwork.GetCookies().
		WithURLs([]string{target}).
		Do(cdp.WithExecutor(root, chromedp.FromContext(root).Target))
	if err != nil {
		log.Debugf("reading session cookies for %s: %v", target, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	req.Header = header.Clone()
	req.Header.Set("User-Agent", e.opts.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "*/*")
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	return e.client.Do(req)
}

// Close closes the active page and shuts the browser down.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true

	if e.active != nil {
		e.active.Close()
		e.active = nil
	}
	if e.rootCancel != nil {
		e.rootCancel()
		e.allocCancel()
		log.Info("browser stopped")
	}
}
