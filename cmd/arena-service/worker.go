package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"smarena/internal/arena"
	"smarena/internal/broker"
	"smarena/internal/logger"
)

// worker owns one Kafka reader and one confirm channel. Workers share the
// evaluator, the resolver and the RabbitMQ connection.
type worker struct {
	id       int
	consumer broker.Consumer
	sender   *arena.Sender
	service  *arena.Service
	logger   logger.Logger
}

func (a *App) newWorker(id int) (*worker, error) {
	publisher, err := a.rabbit.NewPublisher()
	if err != nil {
		return nil, fmt.Errorf("failed to open publisher for worker %d: %w", id, err)
	}

	log := a.Logger.With("worker", id)
	sender := arena.NewSender(publisher, log)
	return &worker{
		id:       id,
		consumer: broker.NewArenaConsumer(a.Config, log),
		sender:   sender,
		service:  arena.NewService(a.evaluator, a.resolver, sender, log),
		logger:   log,
	}, nil
}

func (w *worker) run(ctx context.Context) error {
	defer w.close()
	return w.consumer.Consume(ctx, w.service.HandleMessage)
}

func (w *worker) close() {
	if err := w.consumer.Close(); err != nil {
		w.logger.Warnw("Failed to close consumer", "error", err)
	}
	if err := w.sender.Close(); err != nil {
		w.logger.Warnw("Failed to close publisher", "error", err)
	}
}

// runWorkers starts the configured number of workers and marks the service
// ready once all of them are created. A failing worker marks the process as
// not alive and stops; the others keep going until the supervisor restarts
// the process.
func (a *App) runWorkers(ctx context.Context) error {
	workers := make([]*worker, 0, a.Config.Arena.Workers)
	for i := range a.Config.Arena.Workers {
		w, err := a.newWorker(i)
		if err != nil {
			for _, started := range workers {
				started.close()
			}
			a.State.MarkFailed()
			return err
		}
		workers = append(workers, w)
	}

	a.State.SetReady(true)
	a.Logger.InfowCtx(ctx, "Arena workers started", "workers", len(workers))

	var g errgroup.Group
	for _, w := range workers {
		g.Go(func() error {
			if err := w.run(ctx); err != nil {
				w.logger.ErrorwCtx(ctx, "Worker stopped", "error", err)
				a.State.MarkFailed()
			}
			return nil
		})
	}

	return g.Wait()
}
