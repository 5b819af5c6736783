package movestrategy

import (
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// processReverseShortcut implements REVERSE_SHORTCUT (§4.10): move the
// primary into its first album's folder (lexicographically smallest
// name), then symlink it into every remaining album and into
// ALL_PHOTOS, then delete secondaries.
func processReverseShortcut(e model.MediaEntity, idx int, ctx model.MovingContext, claimed *ClaimedPaths) (model.MediaEntity, []model.MoveOperationResult) {
	var results []model.MoveOperationResult

	albums := sortedAlbumNames(e)
	firstAlbum := ""
	if len(albums) > 0 {
		firstAlbum = albums[0]
	}

	primaryDir, err := targetDirFor(e, firstAlbum, ctx)
	if err != nil {
		return e, []model.MoveOperationResult{failResult(model.OpMove, e.Primary.SourcePath, idx, firstAlbum, err)}
	}

	moveRes := moveOp(model.MoveOperation{Kind: model.OpMove, Source: e.Primary.SourcePath, TargetDir: primaryDir, EntityIdx: idx, AlbumKey: firstAlbum}, claimed)
	results = append(results, moveRes)
	if !moveRes.Success {
		return e, results
	}
	e = model.With(e).PrimaryTarget(moveRes.Target, false).Build()

	allPhotosDir, err := targetDirFor(e, "", ctx)
	if err != nil {
		results = append(results, failResult(model.OpCreateReverseSymlink, moveRes.Target, idx, "", err))
	} else {
		results = append(results, linkOp(model.MoveOperation{Kind: model.OpCreateReverseSymlink, Source: e.Primary.SourcePath, TargetDir: allPhotosDir, EntityIdx: idx}, moveRes.Target, claimed))
	}

	remaining := albums
	if len(remaining) > 0 {
		remaining = remaining[1:]
	}
	for _, album := range remaining {
		albumDir, err := targetDirFor(e, album, ctx)
		if err != nil {
			results = append(results, failResult(model.OpCreateReverseSymlink, moveRes.Target, idx, album, err))
			continue
		}
		results = append(results, linkOp(model.MoveOperation{Kind: model.OpCreateReverseSymlink, Source: e.Primary.SourcePath, TargetDir: albumDir, EntityIdx: idx, AlbumKey: album}, moveRes.Target, claimed))
	}

	results = append(results, deleteSecondaries(&e, idx)...)
	return e, results
}
