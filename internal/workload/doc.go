// Package workload implements a tiny replay DSL for scripting operation
// sequences against any of this module's three containers: lines like
// "push 3", "pop", "insert_or_assign 5 50". Scripts are authored as JSONC
// (tolerant of comments and trailing commas, parsed with hujson before
// standard JSON decoding) or read back as YAML golden fixtures. cmd/ccc-bench
// replays a Script against a container and reports per-operation timings;
// tests use the same Script type as a human-writable alternative to
// hand-built operation slices.
package workload
