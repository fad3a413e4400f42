// Package replay drives a live browser through a captured action list.
package replay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Driver is the browser surface replay dispatches against.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, locator string) error
	Fill(ctx context.Context, locator, value string) error
	Press(ctx context.Context, key string) error
	Scroll(ctx context.Context, x, y float64) error
	Close() error
}

// RodConfig controls the launched browser.
type RodConfig struct {
	Headless  bool
	NoSandbox bool
	Timeout   time.Duration
}

// DefaultRodConfig returns the settings used by the CLI.
func DefaultRodConfig() RodConfig {
	return RodConfig{
		Headless:  true,
		NoSandbox: true,
		Timeout:   10 * time.Second,
	}
}

// RodDriver implements Driver over a rod-controlled page.
type RodDriver struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
}

// NewRodDriver launches a browser and opens a blank page.
func NewRodDriver(cfg RodConfig) (*RodDriver, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &RodDriver{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
	}, nil
}

// Page exposes the underlying page so a recording surface can share the
// same browser.
func (d *RodDriver) Page() *rod.Page { return d.page }

func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	page := d.page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("page load failed: %w", err)
	}

	page.WaitIdle(5 * time.Second)

	return nil
}

func (d *RodDriver) Click(ctx context.Context, locator string) error {
	el, err := d.element(ctx, locator)
	if err != nil {
		return err
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	d.page.WaitIdle(2 * time.Second)

	return nil
}

func (d *RodDriver) Fill(ctx context.Context, locator, value string) error {
	el, err := d.element(ctx, locator)
	if err != nil {
		return err
	}

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}

	if err := el.Input(value); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}

	return nil
}

func (d *RodDriver) Press(ctx context.Context, key string) error {
	el, err := d.element(ctx, "body")
	if err != nil {
		return err
	}

	input := key
	if strings.EqualFold(key, "Enter") {
		input = "\r"
	}

	if err := el.Input(input); err != nil {
		return fmt.Errorf("keypress failed: %w", err)
	}

	d.page.WaitIdle(time.Second)

	return nil
}

func (d *RodDriver) Scroll(ctx context.Context, x, y float64) error {
	_, err := d.page.Context(ctx).Eval(`(x, y) => window.scrollTo(x, y)`, x, y)
	if err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}

	return nil
}

// Close shuts the browser down and cleans the launcher's temp profile.
func (d *RodDriver) Close() error {
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			return err
		}
	}

	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher.Cleanup()
	}

	return nil
}

func (d *RodDriver) element(ctx context.Context, locator string) (*rod.Element, error) {
	el, err := d.page.Context(ctx).Timeout(d.timeout).Element(locator)
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", locator, err)
	}

	return el, nil
}
