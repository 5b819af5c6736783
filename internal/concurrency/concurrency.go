// Package concurrency implements C12: bounded task pools scoped by
// operation class (cpu, exif, file_io), replacing the teacher's single
// fixed-size worker channel (main.go's jobs/results/sync.WaitGroup) with
// a per-class semaphore so an EXIF-heavy step can't starve disk I/O and
// vice versa. Built on golang.org/x/sync/semaphore, one weighted
// semaphore per class, in place of hand-rolled WaitGroup+channel plumbing.
package concurrency

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Class names an operation category with its own concurrency budget.
type Class int

const (
	ClassCPU Class = iota
	ClassEXIF
	ClassFileIO
)

// Preset scales every class's worker count by a multiplier relative to
// the configured Workers count (§5): standard runs each class at 1x,
// Conservative halves everything to ease contention on slow disks or
// thermal-limited machines, DiskOptimized boosts file_io while capping
// cpu/exif to leave I/O bandwidth free.
type Preset int

const (
	PresetStandard Preset = iota
	PresetConservative
	PresetDiskOptimized
)

// Gate bounds concurrent access to one operation class.
type Gate struct {
	sem *semaphore.Weighted
}

// Acquire blocks until a slot is free (or ctx is done) and returns a
// release function the caller must call exactly once.
func (g *Gate) Acquire(ctx context.Context) (func(), error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { g.sem.Release(1) }, nil
}

// Pool holds one Gate per operation class, sized from a base worker
// count and a Preset.
type Pool struct {
	gates map[Class]*Gate
}

// NewPool builds a Pool from the configured base worker count.
func NewPool(workers int, preset Preset) *Pool {
	if workers < 1 {
		workers = 1
	}

	cpuN, exifN, ioN := workers, workers, workers
	switch preset {
	case PresetConservative:
		cpuN, exifN, ioN = half(workers), half(workers), half(workers)
	case PresetDiskOptimized:
		cpuN = half(workers)
		exifN = half(workers)
		ioN = workers * 2
	}

	return &Pool{gates: map[Class]*Gate{
		ClassCPU:    {sem: semaphore.NewWeighted(int64(cpuN))},
		ClassEXIF:   {sem: semaphore.NewWeighted(int64(exifN))},
		ClassFileIO: {sem: semaphore.NewWeighted(int64(ioN))},
	}}
}

func half(n int) int {
	if n/2 < 1 {
		return 1
	}
	return n / 2
}

// Gate returns the Gate for the given operation class.
func (p *Pool) Gate(c Class) *Gate { return p.gates[c] }
