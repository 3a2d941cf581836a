package pyembed

import "github.com/embedimport/pyembed/internal/compiler"

// CollectorOption configures a Collector at construction.
type CollectorOption func(*Collector)

// WithOptimizationLevels sets the bytecode optimization levels the
// collector compiles for each source module lacking bytecode. Defaults
// to {0} (no optimization).
func WithOptimizationLevels(levels []int) CollectorOption {
	return func(c *Collector) {
		c.optimizeLevels = append([]int(nil), levels...)
	}
}

// WithOutputMode sets the bytecode output mode requested from the
// compiler subprocess. Defaults to OutputRawBytecode.
func WithOutputMode(mode compiler.OutputMode) CollectorOption {
	return func(c *Collector) {
		c.outputMode = mode
	}
}

// WithCacheTag sets the interpreter cache tag embedded in compiled
// bytecode filenames (e.g. "cpython-312"). Defaults to "cpython-3".
func WithCacheTag(tag string) CollectorOption {
	return func(c *Collector) {
		c.cacheTag = tag
	}
}

// WithPlatformSuffix sets the filename suffix used for filesystem-relative
// native extension installs (e.g. ".so", ".pyd"). Defaults to ".so".
func WithPlatformSuffix(suffix string) CollectorOption {
	return func(c *Collector) {
		c.platformSuffix = suffix
	}
}
