package instantly

import (
	"context"
	"errors"
)

// ErrNoMorePages is returned by PageIterator.Next after the listing is
// exhausted or a fetch has failed.
var ErrNoMorePages = errors.New("no more pages")

// PageIterator walks a campaign's lead listing one page at a time.
//
// The sequence is lazy: a page is fetched only when Next is called, and
// nothing is prefetched. It is finite and not restartable; after a page
// reports no cursor, or after any error, Next returns ErrNoMorePages.
type PageIterator struct {
	client     *Client
	campaignID string
	cursor     string
	pages      int
	done       bool
}

// Pages starts a lazy page sequence over a campaign's leads.
func (c *Client) Pages(campaignID string) *PageIterator {
	return &PageIterator{client: c, campaignID: campaignID}
}

// Next fetches and returns the next page.
//
// A fetch failure terminates the sequence: the *FetchError is returned
// once and subsequent calls return ErrNoMorePages.
func (it *PageIterator) Next(ctx context.Context) (*Page, error) {
	if it.done {
		return nil, ErrNoMorePages
	}

	page, err := it.client.ListLeads(ctx, it.campaignID, it.cursor)
	if err != nil {
		it.done = true
		return nil, err
	}

	it.pages++
	if page.NextCursor == "" {
		it.done = true
	} else {
		it.cursor = page.NextCursor
	}
	return page, nil
}

// PageCount reports how many pages have been fetched so far.
func (it *PageIterator) PageCount() int {
	return it.pages
}
