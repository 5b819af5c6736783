package movestrategy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/bryanbrunetti/takeout-organizer/internal/errs"
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

// jsonIndexAccumulator collects filename -> album-list mappings as files
// are materialized, flushed to a single albums-info.json at finalize
// (§4.10 JSON index mode).
type jsonIndexAccumulator struct {
	mu      sync.Mutex
	entries map[string][]string
}

func newJSONIndexAccumulator() *jsonIndexAccumulator {
	return &jsonIndexAccumulator{entries: map[string][]string{}}
}

func (j *jsonIndexAccumulator) record(baseName string, albums []string) {
	if len(albums) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[baseName] = albums
}

// finalize writes albums-info.json at the output root and returns its
// result as a single synthetic operation (§4.10 finalize hook: finalize
// errors are reported as results but never fail earlier operations).
func (j *jsonIndexAccumulator) finalize(ctx model.MovingContext) []model.MoveOperationResult {
	j.mu.Lock()
	defer j.mu.Unlock()

	path := filepath.Join(ctx.OutputDirectory, "albums-info.json")
	op := model.MoveOperation{Kind: model.OpCreateJSONReference, TargetDir: ctx.OutputDirectory}

	data, err := json.MarshalIndent(j.entries, "", "  ")
	if err != nil {
		return []model.MoveOperationResult{{Op: op, Success: false, Err: errs.New(errs.Unknown, "movestrategy.jsonindex.marshal", path, err)}}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return []model.MoveOperationResult{{Op: op, Success: false, Err: errs.New(errs.OutputNotWritable, "movestrategy.jsonindex.write", path, err)}}
	}
	return []model.MoveOperationResult{{Op: op, Target: path, Success: true}}
}

// processJSONIndex implements JSON index mode (§4.10): move every unique
// file (including archive/trash sources) into ALL_PHOTOS with no album
// folders, recording the entity's album membership for the finalize
// flush.
func processJSONIndex(e model.MediaEntity, idx int, ctx model.MovingContext, claimed *ClaimedPaths, index *jsonIndexAccumulator) (model.MediaEntity, []model.MoveOperationResult) {
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

	index.record(filepath.Base(moveRes.Target), sortedAlbumNames(e))

	results = append(results, deleteSecondaries(&e, idx)...)
	return e, results
}
