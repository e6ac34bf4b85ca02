package pagination

// DefaultScrollThreshold is the distance from the bottom of the content, in
// the caller's scroll units, at which the next page is requested.
const DefaultScrollThreshold = 100.0

// NearBottom reports whether the visible part of the content reaches within
// threshold of its end.
func NearBottom(offset, contentExtent, viewportExtent, threshold float64) bool {
	return offset+viewportExtent >= contentExtent-threshold
}
