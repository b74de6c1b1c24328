package facebook

import (
	"context"
	"errors"
)

// ErrElementNotFound is returned by Browser.FindElement when no element
// matches the selector.
var ErrElementNotFound = errors.New("no element matches selector")

// Browser is the capability surface the pagination engine needs from a
// browser automation driver. Listing the operations explicitly (instead of
// delegating to an underlying driver) keeps the engine testable against a
// fake.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Refresh(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)
	FindElement(ctx context.Context, selector string) (Element, error)
	// ExecuteScript evaluates a JavaScript expression and unmarshals its
	// result into out.
	ExecuteScript(ctx context.Context, script string, out any) error
	ScrollToBottom(ctx context.Context) error
}

// Element is a handle to a located page element.
type Element interface {
	Attribute(ctx context.Context, name string) (string, error)
	SetAttribute(ctx context.Context, name, value string) error
	SendKeys(ctx context.Context, keys string) error
}

// BrowserProvider hands out one logical browser tab per scraper run. The
// returned release function closes the tab; callers must invoke it exactly
// once when the run reaches a terminal state.
type BrowserProvider interface {
	Acquire(ctx context.Context) (Browser, func(), error)
}
