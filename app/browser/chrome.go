// Package browser provides the chromedp-backed implementation of the
// browser capability surface the facebook scraper is written against.
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/donight/donight/app/scraper/facebook"
)

// ChromeProvider launches one headless Chrome tab per Acquire call. The
// release function tears the tab (and its allocator) down; each scraper run
// gets an isolated session.
type ChromeProvider struct {
	Headless  bool
	UserAgent string
}

func NewChromeProvider(headless bool, userAgent string) *ChromeProvider {
	return &ChromeProvider{Headless: headless, UserAgent: userAgent}
}

func (p *ChromeProvider) Acquire(ctx context.Context) (facebook.Browser, func(), error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.Headless),
	)
	if p.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(p.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so Acquire fails fast when
	// Chrome is missing.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}

	release := func() {
		cancelTab()
		cancelAlloc()
	}
	return &chromeBrowser{ctx: tabCtx}, release, nil
}

type chromeBrowser struct {
	ctx context.Context
}

func (b *chromeBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(b.ctx, actions...)
}

func (b *chromeBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, chromedp.Navigate(url))
}

func (b *chromeBrowser) Refresh(ctx context.Context) error {
	return b.run(ctx, chromedp.Reload())
}

func (b *chromeBrowser) CurrentURL(ctx context.Context) (string, error) {
	var url string
	err := b.run(ctx, chromedp.Location(&url))
	return url, err
}

func (b *chromeBrowser) FindElement(ctx context.Context, selector string) (facebook.Element, error) {
	var exists bool
	script := fmt.Sprintf(`document.querySelector(%q) !== null`, selector)
	if err := b.run(ctx, chromedp.Evaluate(script, &exists)); err != nil {
		return nil, err
	}
	if !exists {
		return nil, facebook.ErrElementNotFound
	}
	return &chromeElement{browser: b, selector: selector}, nil
}

func (b *chromeBrowser) ExecuteScript(ctx context.Context, script string, out any) error {
	return b.run(ctx, chromedp.Evaluate(script, out))
}

func (b *chromeBrowser) ScrollToBottom(ctx context.Context) error {
	var moved bool
	return b.run(ctx, chromedp.Evaluate(`window.scrollBy(0, document.body.scrollHeight); true`, &moved))
}

// chromeElement addresses the first element matching its selector. The
// engine tags handled elements before moving on, so first-match addressing
// is stable for the selectors it uses.
type chromeElement struct {
	browser  *chromeBrowser
	selector string
}

func (e *chromeElement) Attribute(ctx context.Context, name string) (string, error) {
	var value string
	var ok bool
	err := e.browser.run(ctx, chromedp.AttributeValue(e.selector, name, &value, &ok, chromedp.ByQuery))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return value, nil
}

func (e *chromeElement) SetAttribute(ctx context.Context, name, value string) error {
	return e.browser.run(ctx, chromedp.SetAttributeValue(e.selector, name, value, chromedp.ByQuery))
}

func (e *chromeElement) SendKeys(ctx context.Context, keys string) error {
	return e.browser.run(ctx, chromedp.SendKeys(e.selector, keys, chromedp.ByQuery))
}
