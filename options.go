package holoware

import "go.uber.org/zap"

// Option is a functional option for configuring an Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	logger     *zap.Logger
	registry   *ClassRegistry
	sampler    Sampler
	searchPath []string
	maxDepth   int
	cache      TemplateCache
	tracer     Tracer
}

const defaultMaxDepth = 50

func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		registry:   NewClassRegistry(),
		searchPath: []string{"prompts", "hol"},
		maxDepth:   defaultMaxDepth,
		cache:      NewMemoryCache(),
	}
}

// WithLogger sets the logger the engine and everything it constructs use.
// Default: a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithClassRegistry sets the class registry ClassSpans resolve against.
// Default: a fresh empty registry.
func WithClassRegistry(registry *ClassRegistry) Option {
	return func(c *engineConfig) {
		if registry != nil {
			c.registry = registry
		}
	}
}

// WithSampler sets the Sampler used to service SampleSpans.
// Default: nil, which makes any template with a SampleSpan fail evaluation.
func WithSampler(sampler Sampler) Option {
	return func(c *engineConfig) {
		c.sampler = sampler
	}
}

// WithSearchPath sets the directories the loader searches, in order, for a
// named template file. Default: ["prompts", "hol"].
func WithSearchPath(dirs ...string) Option {
	return func(c *engineConfig) {
		if len(dirs) > 0 {
			c.searchPath = dirs
		}
	}
}

// WithMaxDepth bounds how deeply a ClassSpan's indented body may itself
// nest ClassSpans, guarding against runaway recursion on a malformed
// template. Use 0 for unlimited depth. Default: 50.
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxDepth = depth
	}
}

// WithCache sets the compiled-template cache backend. Default: an
// in-memory cache.
func WithCache(cache TemplateCache) Option {
	return func(c *engineConfig) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithTracer sets the tracer wrapping each Evaluate call in a span; Sample
// dispatches inside it get no spans of their own. Default: nil, which
// disables tracing.
func WithTracer(tracer Tracer) Option {
	return func(c *engineConfig) {
		c.tracer = tracer
	}
}
