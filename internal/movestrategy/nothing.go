package movestrategy

import (
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// processNothing implements NOTHING/IGNORE (§4.10): move every unique
// file into ALL_PHOTOS, discarding album membership entirely; secondaries
// are deleted the same as every other strategy.
func processNothing(e model.MediaEntity, idx int, ctx model.MovingContext, claimed *ClaimedPaths) (model.MediaEntity, []model.MoveOperationResult) {
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

	results = append(results, deleteSecondaries(&e, idx)...)
	return e, results
}
