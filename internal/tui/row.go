package tui

import (
	linkapp "github.com/linkdeck/linkdeck/internal/application/links"
)

// row is one rendered link. It owns the item's visibility state and is the
// addressable item view its delete controller acts on.
type row struct {
	link    *linkapp.LinkResponse
	hidden  bool
	removed bool
}

func newRow(link *linkapp.LinkResponse) *row {
	return &row{link: link}
}

// Key implements optimistic.ItemView.
func (r *row) Key() string { return r.link.Key }

// Hidden implements optimistic.ItemView.
func (r *row) Hidden() bool { return r.hidden }

// SetHidden implements optimistic.ItemView.
func (r *row) SetHidden(hidden bool) { r.hidden = hidden }

// Remove implements optimistic.ItemView. Removed rows are dropped from the
// visible list on the next render.
func (r *row) Remove() { r.removed = true }
