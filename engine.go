package holoware

import (
	"context"

	"go.uber.org/zap"

	"github.com/holoware-dev/holoware-go/internal"
)

// Engine is the entry point: it owns the class registry and template
// cache shared across evaluations, and orchestrates one Compile + Evaluate
// round trip per call. Everything else (Phore, Rollout) is created fresh
// per Evaluate, never shared.
type Engine struct {
	config   *engineConfig
	logger   *zap.Logger
	registry *ClassRegistry
	loader   *Loader
}

// New constructs an Engine from the given options.
func New(opts ...Option) *Engine {
	config := defaultEngineConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		config:   config,
		logger:   logger,
		registry: config.registry,
		loader:   NewLoader(config.searchPath, config.cache),
	}
}

// Registry returns the class registry templates evaluated by this engine
// resolve ClassSpans against.
func (e *Engine) Registry() *ClassRegistry { return e.registry }

// Compile parses source directly, bypassing the file loader and its
// cache. Use Load for named, cached templates.
func (e *Engine) Compile(name, source string) (*Template, error) {
	tmpl, err := Compile(name, source)
	if err != nil {
		return nil, err
	}
	if err := e.checkDepth(tmpl.tree, 0); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// Load resolves name against the configured search path, compiling and
// caching it if not already cached.
func (e *Engine) Load(name string) (*Template, error) {
	tmpl, err := e.loader.Load(name)
	if err != nil {
		return nil, err
	}
	if err := e.checkDepth(tmpl.tree, 0); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func (e *Engine) checkDepth(tree *internal.Template, depth int) error {
	if e.config.maxDepth > 0 && depth > e.config.maxDepth {
		return wrapParseError(internal.NewParseError(internal.ErrKindMaxDepthExceeded, ErrMsgMaxDepthExceeded, internal.Position{}))
	}
	for _, span := range tree.Spans {
		if span.Body != nil {
			if err := e.checkDepth(span.Body, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Evaluate walks tmpl's span tree against env, returning the finished
// Rollout. A fresh Phore is created for the run; sampler/registry come
// from the engine's configuration.
func (e *Engine) Evaluate(ctx context.Context, tmpl *Template, env map[string]any) (*Rollout, error) {
	rollout := NewRollout()
	phore := NewPhore(rollout, env, e.registry, e.config.sampler, e.logger)

	finish := func(err error) {}
	if e.config.tracer != nil {
		ctx, finish = e.config.tracer.StartSpan(ctx, "holoware.evaluate", map[string]string{
			MetaKeyTemplate: tmpl.Name,
		})
	}

	evaluator := internal.NewEvaluator(e.logger)
	err := evaluator.Evaluate(ctx, tmpl.tree, phore)
	finish(err)
	if err != nil {
		return nil, wrapParseError(err)
	}

	if err := phore.RunHoloEnd(ctx, tmpl.tree); err != nil {
		return nil, err
	}
	if phore.ErrorCount() > 0 {
		return rollout, newInstantiationError(phore.ErrorCount())
	}

	return rollout, nil
}

// EvaluateSource is a convenience wrapper that compiles source and
// evaluates it in one step, for one-shot, uncached templates.
func (e *Engine) EvaluateSource(ctx context.Context, name, source string, env map[string]any) (*Rollout, error) {
	tmpl, err := e.Compile(name, source)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, tmpl, env)
}

// EvaluateNamed loads name via the configured search path/cache and
// evaluates it.
func (e *Engine) EvaluateNamed(ctx context.Context, name string, env map[string]any) (*Rollout, error) {
	tmpl, err := e.Load(name)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, tmpl, env)
}
