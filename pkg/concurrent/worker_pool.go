package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type WorkerPool[T JobI, G any] struct {
	numWorkers int
	jobQueue   chan Job[T]
	results    chan G
	group      *errgroup.Group
	nextID     int
}

// NewWorkerPool jobQueueSize bounds both pending jobs and buffered results.
func NewWorkerPool[T JobI, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job[T], jobQueueSize),
		results:    make(chan G, jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) AddJob(jobItem T) {
	wp.jobQueue <- Job[T]{ID: wp.nextID, JobItem: jobItem}
	wp.nextID++
}

// Close no more jobs can be added.
func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

// Start workers drain the queue until it is closed or ctx is done.
func (wp *WorkerPool[T, G]) Start(ctx context.Context, fn JobFunc[T, G]) {
	g, ctx := errgroup.WithContext(ctx)
	wp.group = g
	for i := 0; i < wp.numWorkers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case job, ok := <-wp.jobQueue:
					if !ok {
						return nil
					}
					select {
					case wp.results <- fn(job.JobItem):
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		})
	}
}

// Wait blocks until every worker returned, then closes the results channel.
func (wp *WorkerPool[T, G]) Wait() error {
	err := wp.group.Wait()
	close(wp.results)
	return err
}

func (wp *WorkerPool[T, G]) CollectResults() <-chan G {
	return wp.results
}
