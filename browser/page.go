package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/AlexMakesC0de/anime-watch/log"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// requestBuffer bounds undelivered request events per page.
const requestBuffer = 256

// Request is an outgoing request observed in a page.
type Request struct {
	URL          string
	Method       string
	ResourceType string
}

// Page is one intercepting browser tab.
type Page struct {
	ctx       context.Context
	cancel    context.CancelFunc
	referer   string
	blocklist []string

	requests  chan Request
	done      chan struct{}
	closeOnce sync.Once
}

func openPage(root context.Context, referer string, blocklist []string) (*Page, error) {
	ctx, cancel := chromedp.NewContext(root)

	p := &Page{
		ctx:       ctx,
		cancel:    cancel,
		referer:   referer,
		blocklist: blocklist,
		requests:  make(chan Request, requestBuffer),
		done:      make(chan struct{}),
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		if e, ok := ev.(*fetch.EventRequestPaused); ok {
			go p.handlePaused(e)
		}
	})

	err := chromedp.Run(ctx,
		network.Enable(),
		fetch.Enable().WithPatterns([]*fetch.RequestPattern{
			{URLPattern: "*", RequestStage: fetch.RequestStageRequest},
			{URLPattern: "*", RequestStage: fetch.RequestStageResponse},
		}),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("enable interception: %w", err)
	}

	return p, nil
}

// Requests delivers observed requests. It is never closed; stop reading once the page is closed.
func (p *Page) Requests() <-chan Request {
	return p.requests
}

// Navigate loads url in the background. Load failures are logged only,
// players often render in sub-frames that still issue the requests of interest.
func (p *Page) Navigate(url string) {
	go func() {
		if err := chromedp.Run(p.ctx, chromedp.Navigate(url)); err != nil {
			select {
			case <-p.done:
			default:
				log.Warnf("navigating to %s: %v", url, err)
			}
		}
	}()
}

// Close closes the tab. It is safe to call more than once.
func (p *Page) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.cancel()
	})
}

func (p *Page) handlePaused(e *fetch.EventRequestPaused) {
	select {
	case <-p.done:
		return
	default:
	}

	ctx := cdp.WithExecutor(p.ctx, chromedp.FromContext(p.ctx).Target)

	var err error
	switch {
	case e.ResponseErrorReason != "":
		err = fetch.ContinueRequest(e.RequestID).Do(ctx)
	case e.ResponseStatusCode != 0:
		err = fetch.ContinueResponse(e.RequestID).
			WithResponseCode(e.ResponseStatusCode).
			WithResponseHeaders(StripResponseHeaders(e.ResponseHeaders)).
			Do(ctx)
	case Blocked(e.Request.URL, p.blocklist):
		log.Tracef("blocked %s", e.Request.URL)
		err = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(ctx)
	default:
		p.emit(Request{URL: e.Request.URL, Method: e.Request.Method, ResourceType: e.ResourceType.String()})

		continued := fetch.ContinueRequest(e.RequestID)
		if headers, ok := WithReferer(e.Request.Headers, p.referer); ok {
			continued = continued.WithHeaders(headers)
		}
		err = continued.Do(ctx)
	}

	if err != nil && p.ctx.Err() == nil {
		log.Debugf("interception of %s: %v", e.Request.URL, err)
	}
}

func (p *Page) emit(r Request) {
	select {
	case <-p.done:
	case p.requests <- r:
	default:
		log.Debugf("request buffer full, dropping %s", r.URL)
	}
}
