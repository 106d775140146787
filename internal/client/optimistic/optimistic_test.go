package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeEvent records default-prevention calls.
type fakeEvent struct {
	prevented int
}

func (e *fakeEvent) PreventDefault() {
	e.prevented++
}

// fakeItem is an in-memory item view keyed like a rendered row.
type fakeItem struct {
	key     string
	hidden  bool
	removed bool
}

func (i *fakeItem) Key() string           { return i.key }
func (i *fakeItem) Hidden() bool          { return i.hidden }
func (i *fakeItem) SetHidden(hidden bool) { i.hidden = hidden }
func (i *fakeItem) Remove()               { i.removed = true }

// fakeRequester records issued requests and returns a scripted result.
type fakeRequester struct {
	err   error
	calls []struct {
		method string
		url    string
	}
}

func (r *fakeRequester) Do(_ context.Context, method, url string) error {
	r.calls = append(r.calls, struct {
		method string
		url    string
	}{method, url})
	return r.err
}

func deleteForm(key string) Form {
	return Form{Action: "/links/" + key + "/delete", Method: "POST"}
}

func TestNewDelete_RequiresCollaborators(t *testing.T) {
	item := &fakeItem{key: "link1"}
	req := &fakeRequester{}

	_, err := NewDelete(deleteForm("link1"), nil, req)
	assert.ErrorIs(t, err, ErrNilView)

	_, err = NewDelete(deleteForm("link1"), item, nil)
	assert.ErrorIs(t, err, ErrNilRequester)

	d, err := NewDelete(deleteForm("link1"), item, req)
	require.NoError(t, err)
	assert.Equal(t, StateVisible, d.State())
}

func TestDelete_SuccessRemovesItem(t *testing.T) {
	item := &fakeItem{key: "link1"}
	req := &fakeRequester{}
	d, err := NewDelete(deleteForm("link1"), item, req)
	require.NoError(t, err)

	ev := &fakeEvent{}
	state := d.Run(context.Background(), ev)

	assert.Equal(t, StateRemoved, state)
	assert.True(t, item.removed)
	assert.Equal(t, 1, ev.prevented, "default submission must be suppressed")

	require.Len(t, req.calls, 1, "exactly one request per interaction")
	assert.Equal(t, "POST", req.calls[0].method)
	assert.Equal(t, "/links/link1/delete", req.calls[0].url)
}

func TestDelete_FailureRestoresVisibility(t *testing.T) {
	item := &fakeItem{key: "link2"}
	req := &fakeRequester{err: errors.New("connection refused")}
	d, err := NewDelete(deleteForm("link2"), item, req)
	require.NoError(t, err)

	state := d.Run(context.Background(), &fakeEvent{})

	assert.Equal(t, StateVisible, state)
	assert.False(t, item.removed, "item stays in the view on failure")
	assert.False(t, item.hidden, "visibility restored to its pre-click value")
	require.Len(t, req.calls, 1)
}

func TestDelete_RestoresCapturedVisibility(t *testing.T) {
	// An item that was already hidden before the click goes back to hidden,
	// not to some assumed default.
	item := &fakeItem{key: "link3", hidden: true}
	req := &fakeRequester{err: errors.New("timeout")}
	d, err := NewDelete(deleteForm("link3"), item, req)
	require.NoError(t, err)

	d.Run(context.Background(), &fakeEvent{})

	assert.True(t, item.hidden)
	assert.False(t, item.removed)
}

func TestDelete_ClickHidesBeforeRequest(t *testing.T) {
	item := &fakeItem{key: "link1"}
	req := &fakeRequester{}
	d, err := NewDelete(deleteForm("link1"), item, req)
	require.NoError(t, err)

	armed := d.Click(&fakeEvent{})

	require.True(t, armed)
	assert.True(t, item.hidden, "optimistic hide happens before any network call")
	assert.Empty(t, req.calls)
	assert.Equal(t, StateHidden, d.State())
}

func TestDelete_RepeatClickWhileInFlightIsNoOp(t *testing.T) {
	item := &fakeItem{key: "link1"}
	req := &fakeRequester{}
	d, err := NewDelete(deleteForm("link1"), item, req)
	require.NoError(t, err)

	ev := &fakeEvent{}
	require.True(t, d.Click(ev))
	assert.False(t, d.Click(ev), "second click while hidden must not arm again")
	assert.Equal(t, 2, ev.prevented, "default is still suppressed on the repeat click")

	require.NoError(t, d.Request(context.Background()))
	d.Resolve(nil)

	assert.False(t, d.Click(ev), "clicks after removal are ignored")
	require.Len(t, req.calls, 1, "still exactly one request")
}

func TestDelete_ClickAfterRestoreArmsAgain(t *testing.T) {
	item := &fakeItem{key: "link1"}
	req := &fakeRequester{err: errors.New("boom")}
	d, err := NewDelete(deleteForm("link1"), item, req)
	require.NoError(t, err)

	require.Equal(t, StateVisible, d.Run(context.Background(), &fakeEvent{}))

	// The item is interactive again after restoration.
	req.err = nil
	state := d.Run(context.Background(), &fakeEvent{})

	assert.Equal(t, StateRemoved, state)
	assert.True(t, item.removed)
	assert.Len(t, req.calls, 2)
}

func TestDelete_ResolveWithoutClickIsNoOp(t *testing.T) {
	item := &fakeItem{key: "link1"}
	req := &fakeRequester{}
	d, err := NewDelete(deleteForm("link1"), item, req)
	require.NoError(t, err)

	assert.Equal(t, StateVisible, d.Resolve(errors.New("stray result")))
	assert.False(t, item.removed)
	assert.False(t, item.hidden)
}

func TestDelete_FailureReportedToLogger(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	item := &fakeItem{key: "link2"}
	req := &fakeRequester{err: errors.New("connection reset")}
	d, err := NewDelete(deleteForm("link2"), item, req, WithLogger(zap.New(core)))
	require.NoError(t, err)

	d.Run(context.Background(), &fakeEvent{})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "delete request failed, item restored", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "link2", fields["key"])
	assert.Equal(t, "/links/link2/delete", fields["action"])
}

func TestDelete_ErrorNeverPropagates(t *testing.T) {
	item := &fakeItem{key: "link1"}
	req := &fakeRequester{err: errors.New("boom")}
	d, err := NewDelete(deleteForm("link1"), item, req)
	require.NoError(t, err)

	// Run consumes the failure; the only observable outcome is restoration.
	state := d.Run(context.Background(), &fakeEvent{})
	assert.Equal(t, StateVisible, state)
}

func TestDelete_NilEventStillArms(t *testing.T) {
	// Programmatic activation without an event, e.g. from a key binding.
	item := &fakeItem{key: "link1"}
	req := &fakeRequester{}
	d, err := NewDelete(deleteForm("link1"), item, req)
	require.NoError(t, err)

	assert.Equal(t, StateRemoved, d.Run(context.Background(), nil))
	assert.True(t, item.removed)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "visible", StateVisible.String())
	assert.Equal(t, "hidden", StateHidden.String())
	assert.Equal(t, "removed", StateRemoved.String())
	assert.Equal(t, "unknown", State(42).String())
}
