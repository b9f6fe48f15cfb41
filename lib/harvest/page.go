package harvest

import "context"

// Link is a navigation link as it appeared on a results page.
type Link struct {
	Text string
	Href string
}

// Page gives the harvester access to the results view it is walking.
//
// Implementations own every wait and timeout, a method that cannot produce
// what it was asked for returns an error which the harvester propagates
// without retrying.
type Page interface {
	// SelectedMode returns the label of the selected result-mode option.
	SelectedMode(ctx context.Context) (string, error)
	// Results returns the full text of the results container and the text
	// of its header caption.
	Results(ctx context.Context) (container string, header string, err error)
	// Refresh reloads the current view, suppressing any "leave page" prompt.
	Refresh(ctx context.Context) error
	// DismissAlert accepts a pending alert, it is a no-op when none is open.
	DismissAlert(ctx context.Context) error
	// NextLinks lists the "next page" links currently visible.
	NextLinks(ctx context.Context) ([]Link, error)
	// Follow activates a link returned by NextLinks.
	Follow(ctx context.Context, link Link) error
}
