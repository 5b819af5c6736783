package dedup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanbrunetti/takeout-organizer/internal/concurrency"
	"github.com/bryanbrunetti/takeout-organizer/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRunRemovesExactDuplicatesKeepingBestAccuracy(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", "same-bytes")
	b := writeFile(t, dir, "b.jpg", "same-bytes")

	now := time.Now()
	coll := model.NewCollection()
	coll.Add(model.With(model.New(a, "", "")).Date(now, model.MethodEXIF).Build())
	coll.Add(model.With(model.New(b, "", "")).Date(now, model.MethodJSON).Build())

	gate := concurrency.NewPool(4, concurrency.PresetStandard).Gate(concurrency.ClassCPU)
	removed, err := Run(context.Background(), coll, gate)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	require.Equal(t, 1, coll.Len())
	assert.Equal(t, b, coll.At(0).Primary.SourcePath) // JSON (accuracy 1) beats EXIF (accuracy 2)
}

func TestRunKeepsDistinctContentSeparate(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", "content-one")
	b := writeFile(t, dir, "b.jpg", "content-two")

	coll := model.NewCollection()
	coll.Add(model.New(a, "", ""))
	coll.Add(model.New(b, "", ""))

	gate := concurrency.NewPool(2, concurrency.PresetStandard).Gate(concurrency.ClassCPU)
	removed, err := Run(context.Background(), coll, gate)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 2, coll.Len())
}

func TestRunScopesByAlbum(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", "same-bytes")
	b := writeFile(t, dir, "b.jpg", "same-bytes")

	coll := model.NewCollection()
	coll.Add(model.New(a, "Vacation", dir))
	coll.Add(model.New(b, "", "")) // different album-scope key, not deduped against a

	gate := concurrency.NewPool(2, concurrency.PresetStandard).Gate(concurrency.ClassCPU)
	removed, err := Run(context.Background(), coll, gate)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 2, coll.Len())
}

