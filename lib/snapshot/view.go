package snapshot

import (
	"fmt"

	"github.com/gliokit/glio/lib/schema"
)

// View is a read-only window onto one particle category of a Snapshot,
// looked up by its schema alias (e.g. "gas"). A View owns no data: Get
// forwards to the snapshot's block storage by identity, so element-wise
// mutation of a returned Array is visible through both the view and the
// snapshot. Replacing whole arrays through a view is refused; that mutation
// goes through Snapshot.Block instead. Keeping the view a pure lookup device
// means there is never a second copy of the data to fall out of sync.
type View struct {
	snap *Snapshot
	alias string
	index int
}

// View returns a read-only view of the category the given alias maps to in
// the schema's alias table. A SchemaError is returned for unknown aliases.
func (s *Snapshot) View(alias string) (*View, error) {
	index, ok := s.sch.Aliases[alias]
	if !ok {
		return nil, schema.Errf("'%s' is not a category alias declared by " +
			"the bound schema.", alias)
	}
	return &View{ snap: s, alias: alias, index: index }, nil
}

// Alias returns the alias this view was constructed from.
func (v *View) Alias() string { return v.alias }

// Index returns the category index the alias maps to.
func (v *View) Index() int { return v.index }

// Fields returns the names of the currently populated block fields, in
// schema order. Fields that don't apply to this view's category are still
// listed; their Get returns nil.
func (v *View) Fields() []string { return v.snap.Fields() }

// Get returns this category's Array for the named block: the same Array the
// snapshot holds, not a copy. It is nil when the block doesn't apply to this
// category.
func (v *View) Get(name string) (Array, error) {
	blk, err := v.snap.Block(name)
	if err != nil { return nil, err }
	return blk[v.index], nil
}

// Set always fails with an ImmutableViewError. Views are read-only; replace
// arrays through the snapshot's block storage instead.
func (v *View) Set(name string, x Array) error {
	return &ImmutableViewError{ fmt.Sprintf("The view '%s' is read-only: " +
		"'%s' cannot be assigned through it. Replace the array via the " +
		"snapshot's block list instead.", v.alias, name) }
}
