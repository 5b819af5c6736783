// Package dedup implements C5: album-scoped content-hash duplicate
// detection. Entities are grouped by album-membership key, then within
// each group by content digest; every group of size > 1 keeps the entry
// with the best date_accuracy (shortest path as tiebreak) and marks the
// rest removed. Grounded on the teacher's worker-pool shape
// (processFiles/worker), generalized from per-file EXIF updates to
// per-group digest comparison.
package dedup

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/bryanbrunetti/takeout-organizer/internal/concurrency"
	"github.com/bryanbrunetti/takeout-organizer/internal/contenthash"
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// Run hashes every entity's primary file (bounded by the cpu operation
// class), groups by album-scope then digest, and marks all but the best
// entity in every digest group of size > 1 as removed. Returns the number
// of entities removed after Compact.
func Run(ctx context.Context, coll *model.Collection, gate *concurrency.Gate) (int, error) {
	n := coll.Len()
	digests := make([]string, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			release, err := gate.Acquire(gctx)
			if err != nil {
				return err
			}
			defer release()

			e := coll.At(i)
			d, err := contenthash.Digest(e.Primary.SourcePath)
			if err != nil {
				return nil // per-file failures never abort the batch (§4.4 concurrency note)
			}
			digests[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	groups := map[string][]int{} // "albumKey\x00digest" -> indices
	for i := 0; i < n; i++ {
		if digests[i] == "" {
			continue
		}
		e := coll.At(i)
		key := e.AlbumGroupKey() + "\x00" + digests[i]
		groups[key] = append(groups[key], i)
	}

	for i := 0; i < n; i++ {
		coll.ReplaceAt(i, model.With(coll.At(i)).ContentDigest(digests[i]).Build())
	}

	for _, indices := range groups {
		if len(indices) < 2 {
			continue
		}
		sort.Slice(indices, func(a, b int) bool {
			ea, eb := coll.At(indices[a]), coll.At(indices[b])
			if ea.DateAccuracy != eb.DateAccuracy {
				return ea.DateAccuracy < eb.DateAccuracy
			}
			return len(ea.Primary.SourcePath) < len(eb.Primary.SourcePath)
		})
		for _, idx := range indices[1:] {
			coll.MarkRemoved(idx)
		}
	}

	return coll.Compact(), nil
}
