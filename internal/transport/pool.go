package transport

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// taskChanSize bounds how many accepted connections can queue for a free
// worker before Run starts blocking on accept.
const taskChanSize = 100

// WorkerFunc handles one queued task (a net.Conn). Server's handler reads
// and dispatches a single frame per call, then re-queues the connection.
type WorkerFunc func(t *tomb.Tomb, task any) error

// WorkerPool is a fixed-size pool of goroutines pulling tasks off a shared
// channel, supervised by a tomb so a worker's error or the tomb dying
// unwinds the whole pool.
type WorkerPool struct {
	size  int
	tasks chan any
}

// NewWorkerPool builds a pool with room for taskChanSize queued tasks.
func NewWorkerPool(size int) WorkerPool {
	return WorkerPool{
		size:  size,
		tasks: make(chan any, taskChanSize),
	}
}

// AddTask enqueues task for the next free worker.
func (p *WorkerPool) AddTask(task any) {
	p.tasks <- task
}

// Setup starts size workers under t, each running work against whatever
// tasks arrive. Setup returns once every worker goroutine has been
// launched; it does not wait for them to finish.
func (p *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunc) {
	log.Info().Int("workers", p.size).Msg("starting worker pool")
	for i := 0; i < p.size; i++ {
		t.Go(func() error {
			return p.runWorker(t, work)
		})
	}
}

func (p *WorkerPool) runWorker(t *tomb.Tomb, work WorkerFunc) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker exiting")
				return err
			}
		}
	}
}
