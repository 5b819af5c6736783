// Package movestrategy implements C10: the five album-materialization
// strategies, each a function process(entity, context) -> stream of
// MoveOperationResult, plus the shared collision-safe path claim used by
// every strategy. Grounded on the teacher's moveFile/createAlbumSymlink
// pair (a single move + per-album symlink, our SHORTCUT default),
// generalized into all five behaviors of §4.10.
package movestrategy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bryanbrunetti/takeout-organizer/internal/concurrency"
	"github.com/bryanbrunetti/takeout-organizer/internal/errs"
	"github.com/bryanbrunetti/takeout-organizer/internal/fsops"
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
	"github.com/bryanbrunetti/takeout-organizer/internal/pathgen"
	"github.com/bryanbrunetti/takeout-organizer/internal/pathutil"
)

var errUnaccountedPrimary = errors.New("primary file has neither a recorded move nor a recorded deletion")

func removeFile(path string) error { return os.Remove(path) }

// ClaimedPaths is a process-wide, lock-guarded set of target paths
// already handed out by the unique-name resolver, so two concurrent
// strategies never claim the same physical path (§5 shared resource
// policy: "the unique-name resolver acquired once per target").
type ClaimedPaths struct {
	mu      sync.Mutex
	claimed map[string]bool
}

// NewClaimedPaths returns an empty claim set.
func NewClaimedPaths() *ClaimedPaths {
	return &ClaimedPaths{claimed: map[string]bool{}}
}

// Claim resolves a collision-free path under dir for baseName and
// reserves it atomically so no later caller (however concurrent) can
// claim the same path again.
func (c *ClaimedPaths) Claim(dir, baseName string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	exists := func(p string) bool {
		if c.claimed[p] {
			return true
		}
		return pathutil.FileExists(p)
	}
	final := pathutil.UniqueName(filepath.Join(dir, baseName), exists)
	c.claimed[final] = true
	return final
}

// sortedAlbumNames returns an entity's album names in deterministic
// (lexicographic) order, used everywhere album iteration order would
// otherwise be map-random.
func sortedAlbumNames(e model.MediaEntity) []string {
	names := make([]string, 0, len(e.Albums))
	for name := range e.Albums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// moveOp executes a MOVE, claiming a collision-free target under destDir.
func moveOp(op model.MoveOperation, claimed *ClaimedPaths) model.MoveOperationResult {
	target := claimed.Claim(op.TargetDir, filepath.Base(op.Source))
	err := fsops.Move(op.Source, target)
	return model.MoveOperationResult{Op: op, Target: target, Success: err == nil, Err: err}
}

// copyOp executes a COPY, claiming a collision-free target under destDir.
func copyOp(op model.MoveOperation, claimed *ClaimedPaths) model.MoveOperationResult {
	target := claimed.Claim(op.TargetDir, filepath.Base(op.Source))
	err := fsops.Copy(op.Source, target)
	return model.MoveOperationResult{Op: op, Target: target, Success: err == nil, Err: err}
}

// linkOp executes a SYMLINK (or REVERSE_SYMLINK — identical mechanics,
// distinguished only by which entry is primary), claiming a
// collision-free link path under destDir.
func linkOp(op model.MoveOperation, movedTarget string, claimed *ClaimedPaths) model.MoveOperationResult {
	linkPath := claimed.Claim(op.TargetDir, filepath.Base(movedTarget))
	err := fsops.Symlink(movedTarget, linkPath)
	return model.MoveOperationResult{Op: op, Target: linkPath, Success: err == nil, Err: err}
}

// deleteOp removes a secondary file whose content is already represented
// by the entity's materialized primary.
func deleteOp(op model.MoveOperation) model.MoveOperationResult {
	if err := removeFile(op.Source); err != nil {
		return model.MoveOperationResult{Op: op, Success: false, Err: errs.New(errs.OutputNotWritable, "movestrategy.delete", op.Source, err)}
	}
	return model.MoveOperationResult{Op: op, Success: true}
}

// targetDirFor resolves the output directory for a primary or album
// placement via C8, wrapping its error into a failure result the caller
// can short-circuit on.
func targetDirFor(e model.MediaEntity, albumName string, ctx model.MovingContext) (string, error) {
	return pathgen.TargetDir(ctx, albumName, e.DateTaken, e.HasDate, e.PartnerShared)
}

// Run dispatches every entity in coll to the strategy selected by
// behavior, replacing each entity with its post-move state and returning
// the full operation-result stream plus any finalize-hook results
// (§4.10 finalize hook). Entities are dispatched concurrently up to
// gate's file_io budget (§5, §4.12 ClassFileIO); ClaimedPaths and the
// JSON index accumulator are both internally lock-guarded, so concurrent
// dispatch never races on a claimed path or a recorded album membership.
func Run(ctx context.Context, coll *model.Collection, behavior model.AlbumBehavior, movingCtx model.MovingContext, gate *concurrency.Gate) []model.MoveOperationResult {
	claimed := NewClaimedPaths()
	jsonIndex := newJSONIndexAccumulator()

	n := coll.Len()
	perEntity := make([][]model.MoveOperationResult, n)

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
			var updated model.MediaEntity
			var opResults []model.MoveOperationResult

			switch behavior {
			case model.AlbumShortcut:
				updated, opResults = processShortcut(e, i, movingCtx, claimed)
			case model.AlbumReverseShortcut:
				updated, opResults = processReverseShortcut(e, i, movingCtx, claimed)
			case model.AlbumDuplicateCopy:
				updated, opResults = processDuplicateCopy(e, i, movingCtx, claimed)
			case model.AlbumJSON:
				updated, opResults = processJSONIndex(e, i, movingCtx, claimed, jsonIndex)
			default: // AlbumNothing, AlbumIgnore
				updated, opResults = processNothing(e, i, movingCtx, claimed)
			}

			opResults = append(opResults, verifyPrimaryAccountedFor(updated, i)...)
			perEntity[i] = opResults
			coll.ReplaceAt(i, updated)
			return nil
		})
	}
	// Per-entity errors are already carried as failed MoveOperationResults;
	// g.Wait only reports gate-acquire/context failures, which every
	// in-flight entity shares, so there is nothing more to attribute a
	// partial result set to.
	_ = g.Wait()

	var results []model.MoveOperationResult
	for _, r := range perEntity {
		results = append(results, r...)
	}

	if behavior == model.AlbumJSON {
		results = append(results, jsonIndex.finalize(movingCtx)...)
	}

	return results
}

// verifyPrimaryAccountedFor implements the moving service's audit check
// (§4.10): every entity's primary must end up with either a MOVE or a
// DELETE recorded against it; anything else produces a synthetic failure
// result so the summary stays auditable.
func verifyPrimaryAccountedFor(e model.MediaEntity, idx int) []model.MoveOperationResult {
	if e.Primary.TargetPath != "" || e.Primary.Deleted {
		return nil
	}
	return []model.MoveOperationResult{{
		Op:      model.MoveOperation{Kind: model.OpMove, Source: e.Primary.SourcePath, EntityIdx: idx},
		Success: false,
		Err:     errs.New(errs.Unknown, "movestrategy.verify", e.Primary.SourcePath, errUnaccountedPrimary),
	}}
}
