// Package lifecycle owns the cache of loaded inference engines and the
// generation façade on top of it. It is structured into small files by
// concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults.
//   - errors.go: error taxonomy and predicate helpers.
//   - acquire.go: single-flight loading and effective-config resolution.
//   - release.go: unload and shutdown paths.
//   - evict.go: idle-based eviction.
//   - status.go: status reporting for the HTTP layer.
//   - metrics.go: Prometheus instrumentation.
//   - generate.go: single-shot generation.
//   - stream.go: streaming bridge (producer goroutine + bounded channel).
//
// External packages should treat this package as the orchestration layer and
// use public methods only. Adapter errors never escape raw: they are logged
// here and converted to the package's error taxonomy.
package lifecycle
