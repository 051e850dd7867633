package worker

import "github.com/dot-mike/ta-scripts/pkg/logger"

var log = logger.Get("Worker")

// Task is the unit of work executed by a worker. The function should
// claim one piece of work from its owning service and report whether
// anything was claimed. A worker keeps invoking its task until the task
// reports no more work, or an error occurs.
type Task func(w *Worker) (claimed bool, err error)

type Worker struct {
	label string
	task  Task
	err   error
}

func New(label string, task Task) *Worker {
	return &Worker{label: label, task: task}
}

// Run drains the task until it reports no remaining work. The first
// error stops the worker and is retained for the pool to collect.
func (worker *Worker) Run() {
	log.Emit(logger.VERBOSE, "Worker %s starting\n", worker.label)

	for {
		claimed, err := worker.task(worker)
		if err != nil {
			log.Emit(logger.ERROR, "Worker %s reported an error(%T): %v\n", worker.label, err, err)
			worker.err = err
			return
		}
		if !claimed {
			log.Emit(logger.VERBOSE, "Worker %s has no more work\n", worker.label)
			return
		}
	}
}

func (worker *Worker) Label() string { return worker.label }

func (worker *Worker) Err() error { return worker.err }
