package browser

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	cdpio "github.com/chromedp/cdproto/io"
	cdpnetwork "github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// maxResourceBody bounds resources loaded through the browser.
const maxResourceBody = 16 << 20

// resourceChunk is the read size of one IO.read call.
const resourceChunk = 256 << 10

var errResourceTooLarge = errors.New("resource exceeds the in-browser load limit")

// loadableInBrowser reports whether target is small enough to load through Chrome.
// Only playlists qualify, segments and ranged requests take the replay client.
func loadableInBrowser(target string, header http.Header) bool {
	if header.Get("Range") != "" {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".m3u8")
}

// extraHeaders keeps the request headers Chrome lets callers override.
func extraHeaders(header http.Header) cdpnetwork.Headers {
	extra := cdpnetwork.Headers{}
	for _, name := range []string{"Referer", "Origin"} {
		if v := header.Get(name); v != "" {
			extra[name] = v
		}
	}
	return extra
}

// resourceResponse adapts an in-browser load result to an http.Response for target.
func resourceResponse(target string, status int64, headers cdpnetwork.Headers, body []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	h := http.Header{}
	for name, v := range headers {
		h.Set(name, fmt.Sprint(v))
	}
	h.Set("Content-Length", fmt.Sprint(len(body)))

	return &http.Response{
		Status:        http.StatusText(int(status)),
		StatusCode:    int(status),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

// loadResource fetches target with Network.loadNetworkResource on the root tab,
// so the request carries the session's own TLS fingerprint and cookies.
func (e *Engine) loadResource(ctx, root context.Context, target string, header http.Header) (*http.Response, error) {
	e.resourceMu.Lock()
	defer e.resourceMu.Unlock()

	t := chromedp.FromContext(root).Target
	exec := cdp.WithExecutor(ctx, t)

	if err := cdpnetwork.Enable().Do(exec); err != nil {
		return nil, fmt.Errorf("enable network: %w", err)
	}
	if err := cdpnetwork.SetExtraHTTPHeaders(extraHeaders(header)).Do(exec); err != nil {
		return nil, fmt.Errorf("set headers: %w", err)
	}

	res, err := cdpnetwork.LoadNetworkResource(target, &cdpnetwork.LoadNetworkResourceOptions{
		DisableCache:       true,
		IncludeCredentials: true,
	}).WithFrameID(cdp.FrameID(t.TargetID)).Do(exec)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("load %s: %s", target, res.NetErrorName)
	}

	var body []byte
	if res.Stream != "" {
		defer func() { _ = cdpio.Close(res.Stream).Do(exec) }()
		if body, err = readStream(exec, res.Stream); err != nil {
			return nil, err
		}
	}

	return resourceResponse(target, int64(res.HTTPStatusCode), res.Headers, body)
}

func readStream(ctx context.Context, handle cdpio.StreamHandle) ([]byte, error) {
	var buf bytes.Buffer
	for {
		var chunk cdpio.ReadReturns
		if err := cdp.Execute(ctx, cdpio.CommandRead, cdpio.Read(handle).WithSize(resourceChunk), &chunk); err != nil {
			return nil, fmt.Errorf("read stream: %w", err)
		}

		data := []byte(chunk.Data)
		if chunk.Base64encoded {
			decoded, err := base64.StdEncoding.DecodeString(chunk.Data)
			if err != nil {
				return nil, fmt.Errorf("decode stream: %w", err)
			}
			data = decoded
		}
		buf.Write(data)

		if buf.Len() > maxResourceBody {
			return nil, errResourceTooLarge
		}
		if chunk.EOF {
			return buf.Bytes(), nil
		}
	}
}
