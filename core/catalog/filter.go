// Package catalog holds the album search filter and the catalog view state that drives it.
package catalog

import (
	"strings"

	"VinylShop/model"
)

// Filter returns the albums whose title contains query, in input order.
// Matching is literal and case-sensitive; an empty query matches every album.
// The result never aliases all.
func Filter(all []model.Album, query string) []model.Album {
	out := make([]model.Album, 0, len(all))
	for _, a := range all {
		if strings.Contains(a.Title, query) {
			out = append(out, a)
		}
	}
	return out
}
