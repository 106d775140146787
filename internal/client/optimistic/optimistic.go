// Package optimistic implements the optimistic delete interaction: a click
// hides the item before the network round-trip completes, success removes it
// permanently, and failure restores the captured visibility.
package optimistic

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// State tracks a delete interaction. StateRemoved is terminal; a restored
// controller returns to StateVisible and can be clicked again.
type State int

const (
	StateVisible State = iota
	StateHidden
	StateRemoved
)

// String returns a readable state name for logs and status lines.
func (s State) String() string {
	switch s {
	case StateVisible:
		return "visible"
	case StateHidden:
		return "hidden"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Form carries the endpoint and verb of the delete control's enclosing form.
// Both values are used verbatim when the request is issued.
type Form struct {
	Action string
	Method string
}

// Event is the activation event for the delete control. The controller always
// suppresses the default submission before touching any state.
type Event interface {
	PreventDefault()
}

// ItemView is the addressable item the control refers to, passed in
// explicitly at construction. Implementations are owned by the view; the
// controller never looks an item up through shared document state.
type ItemView interface {
	Key() string
	Hidden() bool
	SetHidden(hidden bool)
	Remove()
}

// Requester issues the delete request. Implementations send
// Content-Type: application/json and Accept: application/json with an empty
// body, and report failure only through the returned error: a received HTTP
// response of any status is success, transport and context errors are
// failure.
type Requester interface {
	Do(ctx context.Context, method, url string) error
}

var (
	// ErrNilView is returned by NewDelete when no item view is supplied.
	ErrNilView = errors.New("optimistic: item view is required")
	// ErrNilRequester is returned by NewDelete when no requester is supplied.
	ErrNilRequester = errors.New("optimistic: requester is required")
)

// Delete drives the optimistic delete interaction for a single item:
// visible -> hidden on click, then removed on success or visible again on
// failure. Click and Resolve must be called from the UI goroutine; Request is
// safe to run anywhere. Controllers for different items are independent.
type Delete struct {
	form   Form
	view   ItemView
	req    Requester
	logger *zap.Logger

	state      State
	prevHidden bool
}

// Option configures a Delete controller.
type Option func(*Delete)

// WithLogger sets the diagnostic logger failures are reported to.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Delete) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDelete creates a controller for one delete control. The item view and
// requester are required; the form's action and method are used verbatim.
func NewDelete(form Form, view ItemView, req Requester, opts ...Option) (*Delete, error) {
	if view == nil {
		return nil, ErrNilView
	}
	if req == nil {
		return nil, ErrNilRequester
	}

	d := &Delete{
		form:   form,
		view:   view,
		req:    req,
		logger: zap.NewNop(),
		state:  StateVisible,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// State returns the controller's current state.
func (d *Delete) State() State {
	return d.state
}

// Form returns the form descriptor the controller was constructed with.
func (d *Delete) Form() Form {
	return d.form
}

// Click handles the activation event: it suppresses the default form
// submission, captures the item's visibility, and hides it. It reports
// whether a request was armed; a click while a request is already in flight,
// or after removal, is a no-op and must not issue a second request. Click
// never touches the network.
func (d *Delete) Click(ev Event) bool {
	if ev != nil {
		ev.PreventDefault()
	}
	if d.state != StateVisible {
		return false
	}

	d.prevHidden = d.view.Hidden()
	d.view.SetHidden(true)
	d.state = StateHidden
	return true
}

// Request issues the delete request with the form's method and action.
// It touches no view state and may run off the UI goroutine; the result is
// handed to Resolve.
func (d *Delete) Request(ctx context.Context) error {
	return d.req.Do(ctx, d.form.Method, d.form.Action)
}

// Resolve finalizes the interaction. A nil error removes the item from the
// view permanently; a non-nil error restores the visibility captured at click
// time and reports the failure to the diagnostic logger. The error is
// consumed either way. Resolving with no click in flight is a no-op.
func (d *Delete) Resolve(err error) State {
	if d.state != StateHidden {
		return d.state
	}

	if err != nil {
		d.view.SetHidden(d.prevHidden)
		d.state = StateVisible
		d.logger.Error("delete request failed, item restored",
			zap.String("key", d.view.Key()),
			zap.String("method", d.form.Method),
			zap.String("action", d.form.Action),
			zap.Error(err))
		return d.state
	}

	d.view.Remove()
	d.state = StateRemoved
	return d.state
}

// Run performs the full interaction on the calling goroutine:
// Click, Request, Resolve. It returns the resulting state; a click that does
// not arm a request leaves the state unchanged and issues nothing.
func (d *Delete) Run(ctx context.Context, ev Event) State {
	if !d.Click(ev) {
		return d.state
	}
	return d.Resolve(d.Request(ctx))
}
