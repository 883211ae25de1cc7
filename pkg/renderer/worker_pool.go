package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/df07/go-csg-raytracer/pkg/scene"
)

// TileTask represents a tile rendering task for the worker pool
type TileTask struct {
	Tile          *Tile
	PassNumber    int
	TargetSamples int
	TaskID        int            // For deterministic ordering
	PixelStats    [][]PixelStats // Shared pixel stats array to write to
}

// TileResult contains the result from rendering a tile
type TileResult struct {
	TaskID int
	Stats  RenderStats
	Error  error
}

// WorkerPool manages parallel tile rendering
type WorkerPool struct {
	taskQueue   chan TileTask
	resultQueue chan TileResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once
}

// Worker renders tiles taken from the pool's task queue
type Worker struct {
	ID          int
	renderer    *TileRenderer
	taskQueue   <-chan TileTask
	resultQueue chan<- TileResult
}

// DefaultWorkerCount returns the number of physical CPU cores, falling back
// to the logical CPU count when the platform cannot report them
func DefaultWorkerCount() int {
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// numWorkers <= 0 selects DefaultWorkerCount.
func NewWorkerPool(s *scene.Scene, width, height, tileSize int, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkerCount()
	}

	// One slot per tile lets a whole pass be queued without blocking
	maxTiles := ((width + tileSize - 1) / tileSize) * ((height + tileSize - 1) / tileSize)

	wp := &WorkerPool{
		taskQueue:   make(chan TileTask, maxTiles),
		resultQueue: make(chan TileResult, maxTiles),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			renderer:    NewTileRenderer(s, width, height),
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers. Calling it again has no effect.
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		for _, worker := range wp.workers {
			wp.wg.Add(1)
			go worker.run(&wp.wg)
		}
	})
}

// Stop waits for queued tasks to finish and shuts down all workers
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.taskQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
	})
}

// SubmitTask submits a tile task to the worker pool
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed tile result
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		w.resultQueue <- w.render(task)
	}
}

// render draws one tile into the shared pixel stats. Tiles never overlap,
// so workers write disjoint pixels.
func (w *Worker) render(task TileTask) (result TileResult) {
	result.TaskID = task.TaskID
	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("worker %d: tile %d panicked: %v", w.ID, task.Tile.ID, r)
		}
	}()

	result.Stats = w.renderer.RenderTileBounds(task.Tile.Bounds, task.PixelStats, task.Tile.Random, task.TargetSamples)
	return result
}
