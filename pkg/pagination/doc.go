// Package pagination implements the listing controller behind an
// infinite-scroll character list.
//
// The controller fetches pages of the character catalog one at a time through
// an injected PageFetcher, appends them in page order, and tells a Listener
// when the accumulated list changed or a fetch failed.
//
// Example usage:
//
//	c := pagination.NewController(apiClient, listener, pagination.DefaultConfig())
//	defer c.Close()
//
//	c.LoadFirstPage()
//	// on every scroll event:
//	c.LoadNextPageIfNeeded(offset, contentHeight, viewportHeight)
//
// The controller:
//   - Keeps at most one fetch in flight; triggers arriving meanwhile are dropped, not queued
//   - Fetches the next page only when the viewport is near the bottom of the content
//   - Stops fetching once the last page has been loaded
//   - Leaves the accumulated list untouched when a fetch fails, so the caller may retry
//   - Ignores completions that arrive after Close and drops notifications still queued
package pagination
