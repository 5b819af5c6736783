package movestrategy

import (
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// processDuplicateCopy implements DUPLICATE_COPY (§4.10): move the
// primary into ALL_PHOTOS, then copy (not link) it into every album
// folder, then delete secondaries.
func processDuplicateCopy(e model.MediaEntity, idx int, ctx model.MovingContext, claimed *ClaimedPaths) (model.MediaEntity, []model.MoveOperationResult) {
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
			results = append(results, failResult(model.OpCopy, moveRes.Target, idx, album, err))
			continue
		}
		results = append(results, copyOp(model.MoveOperation{Kind: model.OpCopy, Source: moveRes.Target, TargetDir: albumDir, EntityIdx: idx, AlbumKey: album}, claimed))
	}

	results = append(results, deleteSecondaries(&e, idx)...)
	return e, results
}
