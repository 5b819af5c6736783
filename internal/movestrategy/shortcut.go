package movestrategy

import (
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// processShortcut implements SHORTCUT (§4.10): move the primary into
// ALL_PHOTOS, symlink it into every album, delete secondaries. The
// primary's MOVE is always emitted before any derivative SYMLINK, per the
// per-entity ordering guarantee in §5.
func processShortcut(e model.MediaEntity, idx int, ctx model.MovingContext, claimed *ClaimedPaths) (model.MediaEntity, []model.MoveOperationResult) {
	var results []model.MoveOperationResult

	allPhotosDir, err := targetDirFor(e, "", ctx)
	if err != nil {
		return e, []model.MoveOperationResult{failResult(model.OpMove, e.Primary.SourcePath, idx, "", err)}
	}

	moveRes := moveOp(model.MoveOperation{Kind: model.OpMove, Source: e.Primary.SourcePath, TargetDir: allPhotosDir, EntityIdx: idx}, claimed)
	results = append(results, moveRes)
	if !moveRes.Success {
		return e, results
	}
	e = model.With(e).PrimaryTarget(moveRes.Target, false).Build()

	for _, album := range sortedAlbumNames(e) {
		albumDir, err := targetDirFor(e, album, ctx)
		if err != nil {
			results = append(results, failResult(model.OpCreateSymlink, moveRes.Target, idx, album, err))
			continue
		}
		linkRes := linkOp(model.MoveOperation{Kind: model.OpCreateSymlink, Source: e.Primary.SourcePath, TargetDir: albumDir, EntityIdx: idx, AlbumKey: album}, moveRes.Target, claimed)
		results = append(results, linkRes)
	}

	results = append(results, deleteSecondaries(&e, idx)...)
	return e, results
}

// deleteSecondaries removes every secondary file reference, marking each
// as deleted on the returned entity (their content is already
// represented by the materialized primary, §4.10).
func deleteSecondaries(e *model.MediaEntity, idx int) []model.MoveOperationResult {
	var results []model.MoveOperationResult
	b := model.With(*e)
	var kept []model.FileReference
	for _, sec := range e.Secondary {
		res := deleteOp(model.MoveOperation{Kind: model.OpDelete, Source: sec.SourcePath, EntityIdx: idx})
		results = append(results, res)
		sec.Deleted = res.Success
		kept = append(kept, sec)
	}
	*e = b.Build()
	e.Secondary = kept
	return results
}

func failResult(kind model.MoveOperationKind, source string, idx int, albumKey string, err error) model.MoveOperationResult {
	return model.MoveOperationResult{
		Op:      model.MoveOperation{Kind: kind, Source: source, EntityIdx: idx, AlbumKey: albumKey},
		Success: false,
		Err:     err,
	}
}
