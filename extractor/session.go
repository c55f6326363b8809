package extractor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexMakesC0de/anime-watch/browser"
	"github.com/AlexMakesC0de/anime-watch/key"
	"github.com/AlexMakesC0de/anime-watch/log"
	"github.com/AlexMakesC0de/anime-watch/source"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// ErrTimedOut reports a session that captured nothing before its ceiling.
var ErrTimedOut = errors.New("no media captured before the extraction ceiling")

// State is the lifecycle of a Session.
type State int32

const (
	Pending State = iota
	Capturing
	Resolved
	TimedOut
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Capturing:
		return "capturing"
	case Resolved:
		return "resolved"
	case TimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Timing bounds a capture.
type Timing struct {
	// Debounce is restarted by every capture. When it fires the session resolves.
	Debounce time.Duration
	// Ceiling is measured from session start and always armed.
	Ceiling time.Duration
}

// DefaultTiming is tuned against the provider's embed players.
var DefaultTiming = Timing{Debounce: 2 * time.Second, Ceiling: 25 * time.Second}

// TimingFromConfig reads the capture window from viper.
func TimingFromConfig() Timing {
	t := Timing{
		Debounce: viper.GetDuration(key.ExtractorDebounce),
		Ceiling:  viper.GetDuration(key.ExtractorCeiling),
	}
	if t.Debounce <= 0 {
		t.Debounce = DefaultTiming.Debounce
	}
	if t.Ceiling <= 0 {
		t.Ceiling = DefaultTiming.Ceiling
	}
	return t
}

// Page is an intercepting browser tab.
type Page interface {
	Requests() <-chan browser.Request
	Navigate(url string)
	Close()
}

// Pages opens intercepting tabs. Opening a page closes the previous one.
type Pages interface {
	Open(ctx context.Context, referer string) (Page, error)
}

type enginePages struct{ engine *browser.Engine }

func (e enginePages) Open(ctx context.Context, referer string) (Page, error) {
	page, err := e.engine.Open(ctx, referer)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// EnginePages exposes a browser engine as Pages.
func EnginePages(engine *browser.Engine) Pages {
	return enginePages{engine: engine}
}

// Session captures media requests issued by one player page.
type Session struct {
	player string
	pages  Pages
	wrap   func(string) string
	timing Timing

	mu    sync.RWMutex
	state State
}

// NewSession prepares a capture of player. Captured URLs are passed through wrap before buffering.
func NewSession(player string, pages Pages, wrap func(string) string, timing Timing) *Session {
	return &Session{player: player, pages: pages, wrap: wrap, timing: timing}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != state {
		log.Debugf("session %s: %s -> %s", s.player, s.state, state)
	}
	s.state = state
}

// Run opens the player and captures until the debounce window or the ceiling elapses.
func (s *Session) Run(ctx context.Context) (*source.StreamingInfo, error) {
	page, err := s.pages.Open(ctx, s.player)
	if err != nil {
		return nil, fmt.Errorf("open player %s: %w", s.player, err)
	}
	defer page.Close()

	ceiling := time.NewTimer(s.timing.Ceiling)
	defer ceiling.Stop()

	var (
		debounce *time.Timer
		fired    <-chan time.Time
		seen     = make(map[string]struct{})
		sources  []source.VideoSource
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	log.Infof("capturing media from %s", s.player)
	page.Navigate(s.player)

	for {
		select {
		case req := <-page.Requests():
			kind, ok := Classify(req.URL)
			if !ok {
				continue
			}
			if _, dup := seen[req.URL]; dup {
				continue
			}
			seen[req.URL] = struct{}{}

			sources = append(sources, source.VideoSource{
				URL:     s.wrap(req.URL),
				Quality: QualityOf(req.URL, kind),
				IsM3U8:  kind == KindHLS,
			})
			log.Infof("captured %s source %s", kind, req.URL)

			s.setState(Capturing)
			if debounce == nil {
				debounce = time.NewTimer(s.timing.Debounce)
				fired = debounce.C
			} else {
				debounce.Reset(s.timing.Debounce)
			}

		case <-fired:
			s.setState(Resolved)
			return s.result(sources), nil

		case <-ceiling.C:
			s.setState(TimedOut)
			if len(sources) > 0 {
				log.Infof("ceiling reached with %d source(s) from %s", len(sources), s.player)
				return s.result(sources), nil
			}
			return nil, fmt.Errorf("%w: %s", ErrTimedOut, s.player)

		case <-ctx.Done():
			s.setState(TimedOut)
			if len(sources) > 0 {
				return s.result(sources), nil
			}
			return nil, ctx.Err()
		}
	}
}

func (s *Session) result(sources []source.VideoSource) *source.StreamingInfo {
	return &source.StreamingInfo{
		Sources:  sources,
		Headers:  map[string]string{"Referer": s.player},
		EmbedURL: mo.Some(s.player),
	}
}
