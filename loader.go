package holoware

import (
	"os"
	"path/filepath"
)

// TemplateCache stores compiled templates keyed by the filename they were
// loaded from, per spec: "Caching is by filename." Get returns (nil,
// false) on a miss, never an error — a miss just means compile and Put.
type TemplateCache interface {
	Get(name string) (*Template, bool)
	Put(name string, tmpl *Template)
}

// Loader resolves a template name against a search path, reads it,
// compiles it, and serves subsequent lookups from a TemplateCache.
type Loader struct {
	searchPath []string
	cache      TemplateCache
}

// NewLoader constructs a Loader searching dirs in order and caching
// compiled templates in cache.
func NewLoader(dirs []string, cache TemplateCache) *Loader {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Loader{searchPath: dirs, cache: cache}
}

// Load resolves name against the search path, returning a cached compile
// if one exists, compiling and caching it otherwise.
func (l *Loader) Load(name string) (*Template, error) {
	if tmpl, ok := l.cache.Get(name); ok {
		return tmpl, nil
	}

	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newTemplateNotFoundError(name)
	}
	if len(data) == 0 {
		return nil, wrapParseError(newParseEmptyError())
	}

	tmpl, err := Compile(name, string(data))
	if err != nil {
		return nil, err
	}
	tmpl.Path = path

	l.cache.Put(name, tmpl)
	return tmpl, nil
}

func (l *Loader) resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
		return "", newTemplateNotFoundError(name)
	}

	for _, dir := range l.searchPath {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", newTemplateNotFoundError(name)
}
