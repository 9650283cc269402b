package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/orderdash/orderdash/internal/config"
	"github.com/orderdash/orderdash/internal/messaging"
)

const maxConsumeBackoff = 30 * time.Second

// HandlerRegistration binds a message topic to the handler that processes
// records from it.
type HandlerRegistration struct {
	Topic   string
	Handler messaging.Handler
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine runs the background consumers that drain the order event topic.
type Engine struct {
	client   messaging.Client
	logger   *zap.Logger
	cfg      config.Config
	handlers map[string]messaging.Handler
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewEngine constructs the worker Engine from the registered handlers.
func NewEngine(p Params) *Engine {
	handlers := make(map[string]messaging.Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Topic == "" || r.Handler == nil {
			continue
		}
		handlers[r.Topic] = r.Handler
	}

	return &Engine{
		client:   p.Client,
		logger:   p.Logger,
		cfg:      p.Config,
		handlers: handlers,
	}
}

// Module wires the engine into the Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{
			OnStart: engine.start,
			OnStop:  engine.stop,
		})
	}),
)

func (e *Engine) start(context.Context) error {
	if !e.cfg.Messaging.Enabled || !e.cfg.Messaging.Workers.Enabled {
		e.logger.Info("background workers disabled")
		return nil
	}
	if len(e.handlers) == 0 {
		e.logger.Info("no worker handlers registered, nothing to consume")
		return nil
	}

	concurrency := e.cfg.Messaging.Workers.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	for i := 0; i < concurrency; i++ {
		id := i
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consume(runCtx, id)
		}()
	}

	e.logger.Info("background workers started", zap.Int("workers", concurrency))
	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("background workers stopped")
		return nil
	}
}

// consume keeps one consumer on the bus, backing off exponentially after
// failures so a flapping broker does not get hammered.
func (e *Engine) consume(ctx context.Context, id int) {
	backoff := time.Second
	for ctx.Err() == nil {
		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			return e.dispatch(msgCtx, id, msg)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Int("worker", id), zap.Error(err))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		if backoff < maxConsumeBackoff {
			backoff *= 2
		}
	}
}

func (e *Engine) dispatch(ctx context.Context, id int, msg messaging.Message) error {
	handler, ok := e.handlers[msg.Topic]
	if !ok {
		e.logger.Warn("no handler for topic", zap.String("topic", msg.Topic))
		return nil
	}

	e.logger.Debug("processing message", zap.String("topic", msg.Topic), zap.Int("worker", id))
	return handler(ctx, msg)
}
