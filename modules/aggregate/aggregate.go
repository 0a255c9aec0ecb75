package aggregate

import (
	"context"
	"errors"

	"github.com/chebyrash/promise"
)

// Plugin is a component with a lifecycle. Init runs in the order plugins
// were given, Start must not block and Stop runs in reverse order.
type Plugin interface {
	Init() error
	Start() *promise.Promise[any]
	Stop() error
}

// Aggregate runs a set of plugins as one.
type Aggregate struct {
	ctx     context.Context
	cancel  context.CancelFunc
	plugins []Plugin
}

var _ Plugin = &Aggregate{}

func New(plugins []Plugin) *Aggregate {
	ctx, cancel := context.WithCancel(context.Background())
	return &Aggregate{
		ctx,
		cancel,
		plugins,
	}
}

// Run initializes and starts every plugin, runs job and stops the plugins
// again. Stop runs even when job fails; job's error takes precedence.
func (a *Aggregate) Run(ctx context.Context, job func(context.Context) error) error {
	defer a.cancel()

	if err := a.Init(); err != nil {
		return err
	}

	if _, err := a.Start().Await(ctx); err != nil {
		return errors.Join(err, a.Stop())
	}

	jobErr := job(ctx)
	stopErr := a.Stop()
	if jobErr != nil {
		return jobErr
	}
	return stopErr
}

// Init implements Plugin.
func (a *Aggregate) Init() error {
	for _, p := range a.plugins {
		if err := p.Init(); err != nil {
			return err
		}
	}
	return nil
}

// Start implements Plugin.
func (a *Aggregate) Start() *promise.Promise[any] {
	promises := make([]*promise.Promise[any], len(a.plugins))
	for i, p := range a.plugins {
		promises[i] = p.Start()
	}
	return promise.Then(
		promise.All(a.ctx, promises...),
		a.ctx,
		func([]any) (any, error) {
			return nil, nil
		},
	)
}

// Stop implements Plugin. Plugins are stopped in reverse order.
func (a *Aggregate) Stop() error {
	var errs []error
	for i := len(a.plugins) - 1; i >= 0; i-- {
		if err := a.plugins[i].Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
