// Package albummerge implements C6: folding entities that are
// byte-identical copies discovered under different album/year folders
// into one canonical entity carrying the union of every album
// membership. Reuses C5's content digests rather than rehashing, and
// follows dedup's bucket-then-elect shape generalized from "keep one,
// drop the rest" to "keep one, absorb the rest".
package albummerge

import (
	"path/filepath"

	"github.com/bryanbrunetti/takeout-organizer/internal/contenthash"
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
	"github.com/bryanbrunetti/takeout-organizer/internal/pathutil"
)

// Run buckets every entity by content digest, elects one canonical entity
// per bucket of size > 1 (year-folder source wins, else highest date
// accuracy, else shortest path), merges the rest into it, and removes the
// absorbed entities. Returns the number of entities removed.
func Run(coll *model.Collection) (int, error) {
	n := coll.Len()

	buckets := map[string][]int{}
	for i := 0; i < n; i++ {
		e := coll.At(i)
		digest := e.ContentDigest
		if digest == "" {
			d, err := contenthash.Digest(e.Primary.SourcePath)
			if err != nil {
				continue // unreadable primary: leave ungrouped, later steps will surface the error
			}
			digest = d
			coll.ReplaceAt(i, model.With(e).ContentDigest(digest).Build())
		}
		buckets[digest] = append(buckets[digest], i)
	}

	toRemove := map[int]bool{}
	for _, indices := range buckets {
		if len(indices) < 2 {
			continue
		}
		canonical := electCanonical(coll, indices)
		merged := coll.At(canonical)

		for _, idx := range indices {
			if idx == canonical {
				continue
			}
			other := coll.At(idx)
			merged = absorb(merged, other)
			toRemove[idx] = true
		}
		coll.ReplaceAt(canonical, merged)
	}

	for idx := range toRemove {
		coll.MarkRemoved(idx)
	}
	return coll.Compact(), nil
}

// electCanonical picks the bucket member whose source directory is a
// year folder; absent that, the highest date_accuracy (lowest score),
// tie-broken by shortest primary-file path (§4.6 step 2).
func electCanonical(coll *model.Collection, indices []int) int {
	for _, idx := range indices {
		e := coll.At(idx)
		if _, ok := pathutil.IsYearFolder(filepath.Base(filepath.Dir(e.Primary.SourcePath))); ok {
			return idx
		}
	}

	best := indices[0]
	bestEntity := coll.At(best)
	for _, idx := range indices[1:] {
		e := coll.At(idx)
		switch {
		case e.DateAccuracy < bestEntity.DateAccuracy:
			best, bestEntity = idx, e
		case e.DateAccuracy == bestEntity.DateAccuracy &&
			len(e.Primary.SourcePath) < len(bestEntity.Primary.SourcePath):
			best, bestEntity = idx, e
		}
	}
	return best
}

// absorb folds other into canonical: unions album membership, appends
// other's primary as a secondary file if not already present, and adopts
// other's date if canonical lacks one or other's is more accurate
// (§4.6 steps 3-4).
func absorb(canonical, other model.MediaEntity) model.MediaEntity {
	b := model.With(canonical).
		MergeAlbums(other.Albums).
		AddSecondary(other.Primary)

	if !canonical.HasDate && other.HasDate {
		b = b.Date(other.DateTaken, other.DateMethod)
	} else if canonical.HasDate && other.HasDate && other.DateAccuracy < canonical.DateAccuracy {
		b = b.Date(other.DateTaken, other.DateMethod)
	}

	return b.Build()
}
