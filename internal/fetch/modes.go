package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-rod/rod"
)

// HTTPFetcher implements the "http" (and, as a stand-in, "crawlee") fetcher
// modes with a plain net/http client. crawlee has no direct Go equivalent
// (it is a Node.js scraping framework). A separate HTTPFetcher instance can
// carry its own user agent and timeout for it; pacing is tracked per host,
// not per mode.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPFetcher returns a fetcher with the given timeout and user agent.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}, UserAgent: userAgent}
}

// Fetch performs a single GET request and returns its status and body.
func (f *HTTPFetcher) Fetch(ctx context.Context, src Source) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return Result{}, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{StatusCode: resp.StatusCode}, err
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return Result{StatusCode: resp.StatusCode, Body: body, Headers: headers}, nil
}

// RodFetcher implements the "playwright" fetcher mode using a headless
// Chrome instance driven by go-rod. Adapted from the teacher's
// internal/browser/session_manager.go page-lifecycle pattern: one shared
// *rod.Browser, one throwaway page per fetch, navigate-then-extract.
type RodFetcher struct {
	Browser        *rod.Browser
	GotoTimeout    time.Duration
}

// NewRodFetcher wraps an already-launched browser. Launching (and the
// accompanying download of a Chromium binary) is left to the caller, the
// same way the teacher's SessionManager takes a pre-built launcher config
// rather than owning process bootstrap inside the fetch path.
func NewRodFetcher(browser *rod.Browser, gotoTimeout time.Duration) *RodFetcher {
	if gotoTimeout <= 0 {
		gotoTimeout = 30 * time.Second
	}
	return &RodFetcher{Browser: browser, GotoTimeout: gotoTimeout}
}

// Fetch navigates a fresh page to src.URL, waits for load, and returns the
// rendered HTML as the body. Status code is best-effort: go-rod does not
// surface the navigation response status directly on the simple Navigate
// path, so a successful render is reported as 200 and a navigation error is
// returned for the Scheduler's classifier to map to a fetch outcome.
func (f *RodFetcher) Fetch(ctx context.Context, src Source) (Result, error) {
	page, err := f.Browser.Context(ctx).Page(rod.PageInfo{})
	if err != nil {
		return Result{}, err
	}
	defer page.Close()

	page = page.Timeout(f.GotoTimeout)
	if err := page.Navigate(src.URL); err != nil {
		return Result{}, err
	}
	if err := page.WaitLoad(); err != nil {
		return Result{}, err
	}

	html, err := page.HTML()
	if err != nil {
		return Result{}, err
	}

	return Result{StatusCode: http.StatusOK, Body: []byte(html)}, nil
}

// ModeRouter dispatches DrainQueue's FetchWithModeFunc to the concrete
// fetcher registered for that mode.
type ModeRouter struct {
	fetchers map[Mode]func(context.Context, Source) (Result, error)
}

// NewModeRouter builds a router from one fetcher per mode. A mode with no
// registered fetcher is treated as immediately failing (fetch_error), so
// the Fallback Policy still advances the mode ladder instead of hanging.
func NewModeRouter(crawlee, playwright, httpMode func(context.Context, Source) (Result, error)) *ModeRouter {
	return &ModeRouter{fetchers: map[Mode]func(context.Context, Source) (Result, error){
		ModeCrawlee:    crawlee,
		ModePlaywright: playwright,
		ModeHTTP:       httpMode,
	}}
}

// FetchWithMode implements FetchWithModeFunc.
func (r *ModeRouter) FetchWithMode(ctx context.Context, src Source, mode Mode) (Result, error) {
	fn, ok := r.fetchers[mode]
	if !ok || fn == nil {
		return Result{}, errUnregisteredMode(mode)
	}
	return fn(ctx, src)
}

type errUnregisteredMode Mode

func (e errUnregisteredMode) Error() string {
	return "fetch: no fetcher registered for mode " + string(e)
}
