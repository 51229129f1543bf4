package vecdb

import (
	"log/slog"

	"github.com/vecdb/vecdb/codec"
	"github.com/vecdb/vecdb/index"
	"github.com/vecdb/vecdb/index/graph"
	"github.com/vecdb/vecdb/storage"
)

type options struct {
	indexKind        index.Kind
	graphOptions     []func(*graph.Options)
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	readCacheSize    int
	storeOptions     []func(*storage.Options)
}

// Option configures database constructor behavior.
type Option func(*options)

// WithGraphIndex selects the graph-based ANN index (the default) and applies
// the given option functions to its construction parameters.
//
// Example:
//
//	db, _ := vecdb.New("./data", vecdb.WithGraphIndex(func(o *graph.Options) {
//	    o.MaxConnections = 32
//	    o.EFConstruction = 400
//	}))
func WithGraphIndex(optFns ...func(*graph.Options)) Option {
	return func(o *options) {
		o.indexKind = index.KindGraph
		o.graphOptions = optFns
	}
}

// WithFlatIndex selects the brute-force exact index instead of the graph
// index. Every search scans all vectors; use for small datasets or when
// exact results are required.
func WithFlatIndex() Option {
	return func(o *options) {
		o.indexKind = index.KindFlat
	}
}

// WithCodec configures the codec used for serializing records in the store.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithReadCache wraps the store with a read-through LRU cache of the given
// size. A size <= 0 disables caching.
func WithReadCache(size int) Option {
	return func(o *options) {
		o.readCacheSize = size
	}
}

// WithStoreOptions applies option functions to the persistent store
// configuration (transaction concurrency bound, backup throttle, file mode).
func WithStoreOptions(optFns ...func(*storage.Options)) Option {
	return func(o *options) {
		o.storeOptions = optFns
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecdb.BasicMetricsCollector{}
//	db, _ := vecdb.New("./data", vecdb.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// Example with JSON logging:
//
//	logger := vecdb.NewJSONLogger(slog.LevelInfo)
//	db, _ := vecdb.New("./data", vecdb.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		indexKind:        index.KindGraph,
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
