package main

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// workerStarterStopper is satisfied by every background loop the
// App manages (Receiver, Sender, InboundProcessor, GossipLoop,
// HeartbeatLoop, statusapi.Server), adapted from the distributed-queue
// module's App.
type workerStarterStopper interface {
	Run() error
	Stop() error
}

// App owns the lifecycle of every background worker in a running node.
type App struct {
	logger  *zap.Logger
	workers []workerStarterStopper
}

// AddWorker registers w to be started by Run and stopped by Shutdown.
func (a *App) AddWorker(w workerStarterStopper) {
	a.logger.Debug("registering background worker", zap.String("type", fmt.Sprintf("%T", w)))
	a.workers = append(a.workers, w)
}

// Run starts every registered worker in registration order, stopping
// already-started workers if one fails to start.
func (a *App) Run() error {
	started := make([]workerStarterStopper, 0, len(a.workers))
	for _, w := range a.workers {
		if err := w.Run(); err != nil {
			for i := len(started) - 1; i >= 0; i-- {
				started[i].Stop()
			}
			return fmt.Errorf("starting %T: %w", w, err)
		}
		a.logger.Info("background worker started", zap.String("type", fmt.Sprintf("%T", w)))
		started = append(started, w)
	}
	return nil
}

// Shutdown stops every worker in reverse registration order, combining
// every error encountered with go.uber.org/multierr rather than
// stopping at the first failure.
func (a *App) Shutdown() error {
	var err error
	for i := len(a.workers) - 1; i >= 0; i-- {
		if stopErr := a.workers[i].Stop(); stopErr != nil {
			err = multierr.Append(err, fmt.Errorf("stopping %T: %w", a.workers[i], stopErr))
		}
	}
	return err
}
