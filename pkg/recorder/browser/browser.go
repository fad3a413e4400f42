// Package browser implements the recorder's capture surface on top of a
// go-rod page. Capture hooks are injected as capture-phase DOM listeners
// that report back through an exposed page binding.
package browser

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/ysmood/gson"

	"github.com/b0stwickvibes/auto-flow-v1/pkg/recorder"
)

const bindingName = "autoflowCapture"

// installHooks attaches capture-phase listeners at the document root and
// marks the surface as attached. A full navigation wipes the flag, which
// the recorder's liveness poll detects.
const installHooks = `() => {
	if (window.__autoflowHooks) { return false; }
	window.__autoflowHooks = true;

	const attrs = (el) => {
		const out = {};
		for (const name of ['id', 'class', 'type', 'name', 'placeholder']) {
			const v = el.getAttribute && el.getAttribute(name);
			if (v) { out[name] = v; }
		}
		return out;
	};

	const emit = (payload) => {
		payload.url = window.location.href;
		window.autoflowCapture(JSON.stringify(payload));
	};

	document.addEventListener('click', (e) => {
		const el = e.target;
		emit({
			type: 'click',
			tag: el.tagName ? el.tagName.toLowerCase() : '',
			attrs: attrs(el),
			x: e.clientX,
			y: e.clientY,
		});
	}, true);

	document.addEventListener('change', (e) => {
		const el = e.target;
		emit({
			type: 'input',
			tag: el.tagName ? el.tagName.toLowerCase() : '',
			attrs: attrs(el),
			value: el.value || '',
		});
	}, true);

	document.addEventListener('keydown', (e) => {
		emit({
			type: 'keydown',
			tag: e.target && e.target.tagName ? e.target.tagName.toLowerCase() : '',
			attrs: e.target && e.target.getAttribute ? {} : {},
			key: e.key,
		});
	}, true);

	return true;
}`

// Surface adapts a rod page to the recorder.EventSource interface.
type Surface struct {
	mu          sync.Mutex
	page        *rod.Page
	logger      *slog.Logger
	handler     recorder.Handler
	stopBinding func() error
}

var _ recorder.EventSource = (*Surface)(nil)

// NewSurface wraps an already-navigated rod page.
func NewSurface(page *rod.Page, logger *slog.Logger) *Surface {
	return &Surface{
		page:   page,
		logger: logger.With("module", "browser_surface"),
	}
}

// Attach exposes the capture binding and installs the DOM hooks. Calling
// Attach on a live surface is a no-op, so re-attachment after navigation
// never double-counts events.
func (s *Surface) Attach(_ context.Context, handler recorder.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handler = handler

	if s.stopBinding == nil {
		stop, err := s.page.Expose(bindingName, s.onBinding)
		if err != nil {
			return err
		}

		s.stopBinding = stop
	}

	if _, err := s.page.Eval(installHooks); err != nil {
		return err
	}

	return nil
}

// Detach removes the page binding. The injected listeners die with the
// page context.
func (s *Surface) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handler = nil

	if s.stopBinding != nil {
		err := s.stopBinding()
		s.stopBinding = nil

		return err
	}

	return nil
}

// Alive reports whether the capture hooks are still installed on the
// current document.
func (s *Surface) Alive() bool {
	res, err := s.page.Eval(`() => !!window.__autoflowHooks`)
	if err != nil {
		return false
	}

	return res.Value.Bool()
}

func (s *Surface) onBinding(payload gson.JSON) (any, error) {
	event, ok := decodeEvent(payload.Str())
	if !ok {
		s.logger.Warn("Dropping undecodable capture payload")

		return nil, nil
	}

	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()

	if handler != nil {
		handler(event)
	}

	return nil, nil
}
