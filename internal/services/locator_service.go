package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/geolink/edge-locator/internal/locator"
)

// LocatorService manages the locator node's lifecycle: it wires the node's
// transport handlers on start and optionally re-locates on an interval so
// the results stay fresh without host involvement.
type LocatorService struct {
	// Configuration fields
	interval    time.Duration
	usePrevious bool

	// Dependencies
	node   locator.Node
	logger zerolog.Logger

	// Internal state management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLocatorService creates a new LocatorService instance. An interval of 0
// disables periodic locates; the host then drives the node directly.
func NewLocatorService(node locator.Node, interval time.Duration, usePrevious bool, logger zerolog.Logger) *LocatorService {
	return &LocatorService{
		interval:    interval,
		usePrevious: usePrevious,
		node:        node,
		logger:      logger,
	}
}

// Start registers the node's handlers and launches the periodic locate loop.
func (l *LocatorService) Start() error {
	if l.ctx != nil {
		l.logger.Warn().Msg("LocatorService is already running")
		return errors.New("locator service is already running")
	}

	if err := l.node.Start(); err != nil {
		return err
	}

	l.ctx, l.cancel = context.WithCancel(context.Background())

	if l.interval > 0 {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.runLocateLoop()
		}()
	}

	l.logger.Info().Dur("interval", l.interval).Msg("LocatorService started")
	return nil
}

// Stop gracefully stops the periodic locate loop. An in-flight locate cycle
// cannot be cancelled; it runs to Done or Failed on its own.
func (l *LocatorService) Stop() error {
	if l.ctx == nil {
		l.logger.Warn().Msg("LocatorService is not running")
		return errors.New("locator service is not running")
	}

	l.cancel()
	l.wg.Wait()

	l.ctx = nil
	l.cancel = nil

	l.logger.Info().Msg("LocatorService stopped")
	return nil
}

// runLocateLoop triggers a locate cycle at every tick. The node's own guard
// makes a tick that lands during an in-flight cycle a no-op.
func (l *LocatorService) runLocateLoop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.node.Locate(l.usePrevious, nil)
		case <-l.ctx.Done():
			l.logger.Info().Msg("LocatorService locate loop stopping")
			return
		}
	}
}
