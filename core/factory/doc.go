// Package factory maps the `type`/`conf` blocks of the configuration file to
// backends. Each pluggable concern (solvers, run-log stores, result caches,
// metrics sinks) owns one Registry for its interface; adapters add themselves
// from init, so importing a package is enough to make its type selectable.
//
// A run-log section such as
//
//	runlog:
//	  type: rotating
//	  conf: {path: runs.jsonl, max_size_mb: 20}
//
// is decoded into a ModuleConfig and resolved by the store registry, whose
// "rotating" factory decodes conf into its FileConfig with Decode. Solvers
// and caches follow the same path; the memory cache's `ttl: 10m` option
// decodes into a time.Duration field.
//
// Registering a name twice is an error, and Create on an unknown type lists
// the registered names.
package factory
