// Package input maps key presses to playback operations.
package input

import (
	"github.com/gdamore/tcell/v2"
	"github.com/glebovdev/trackdeck/internal/config"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

// Controller is the subset of the player the router drives.
type Controller interface {
	TogglePlay()
	Next()
	Previous()
	AdjustVolume(delta int)
	ToggleMute()
}

// Handler has the shape of a tview input capture function.
type Handler func(event *tcell.EventKey) *tcell.EventKey

// Router dispatches transport keys to a Controller. Keys it does not own, and
// every key while a text field has focus, go to the fallback handler.
type Router struct {
	ctrl        Controller
	textFocused func() bool
	fallback    Handler
	app         *tview.Application
}

// NewRouter creates a Router. textFocused and fallback may be nil.
func NewRouter(ctrl Controller, textFocused func() bool, fallback Handler) *Router {
	return &Router{
		ctrl:        ctrl,
		textFocused: textFocused,
		fallback:    fallback,
	}
}

// HandleKey consumes the event (returns nil) when it maps to an operation.
func (r *Router) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	if event == nil {
		return nil
	}

	if r.textFocused != nil && r.textFocused() {
		return r.pass(event)
	}

	switch event.Key() {
	case tcell.KeyRight:
		r.ctrl.Next()
		return nil
	case tcell.KeyLeft:
		r.ctrl.Previous()
		return nil
	case tcell.KeyUp:
		r.ctrl.AdjustVolume(config.VolumeStep)
		return nil
	case tcell.KeyDown:
		r.ctrl.AdjustVolume(-config.VolumeStep)
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case ' ':
			r.ctrl.TogglePlay()
			return nil
		case 'm', 'M':
			r.ctrl.ToggleMute()
			return nil
		}
	}

	return r.pass(event)
}

func (r *Router) pass(event *tcell.EventKey) *tcell.EventKey {
	if r.fallback == nil {
		return event
	}
	return r.fallback(event)
}

// Activate installs the router as app's input capture.
func (r *Router) Activate(app *tview.Application) {
	r.app = app
	app.SetInputCapture(r.HandleKey)
	log.Debug().Msg("Input router activated")
}

// Deactivate removes the input capture installed by Activate.
func (r *Router) Deactivate() {
	if r.app == nil {
		return
	}
	r.app.SetInputCapture(nil)
	r.app = nil
	log.Debug().Msg("Input router deactivated")
}
