package arxiv

import (
	"context"

	"github.com/hoangnd/texcrawl/internal/ident"
)

// DiscoverVersions determines which versions of a paper exist by probing
// v1, v2, ... until the first identifier that fails to resolve. With
// v1Only set it returns {1} without any network traffic.
//
// When even version 1 fails to resolve, the paper is assumed to have a
// single version rather than being dropped; the per-version fetch and the
// metadata build will surface the real failure later with more context.
func (c *Client) DiscoverVersions(ctx context.Context, baseID string, v1Only bool) []int {
	if v1Only {
		return []int{1}
	}

	var versions []int
	for v := 1; ; v++ {
		if _, err := c.Resolve(ctx, ident.WithVersion(baseID, v)); err != nil {
			break
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return []int{1}
	}
	return versions
}
