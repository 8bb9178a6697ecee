package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfg = zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
		Development: false,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stdout"},
	}

	registry = &levelRegistry{
		levels:       make(map[string]zap.AtomicLevel),
		defaultLevel: zap.InfoLevel,
	}
)

type levelRegistry struct {
	mu           sync.Mutex
	levels       map[string]zap.AtomicLevel
	defaultLevel zapcore.Level
}

func (r *levelRegistry) level(name string) zap.AtomicLevel {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.levels[name]; !ok {
		r.levels[name] = zap.NewAtomicLevelAt(r.defaultLevel)
	}
	return r.levels[name]
}

func (r *levelRegistry) setAll(level zapcore.Level) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaultLevel = level
	for _, l := range r.levels {
		l.SetLevel(level)
	}
}

// SetLevel applies a level by name ("debug", "info", "warn", "error") to all
// named loggers, current and future. Unparseable names are ignored.
func SetLevel(name string) {
	var level zapcore.Level
	if err := level.Set(name); err != nil {
		return
	}
	registry.setAll(level)
}

// New builds a named, level-adjustable sugared logger on the shared config.
func New(name string) *zap.SugaredLogger {
	c := cfg
	c.Level = registry.level(name)
	return zap.Must(c.Build(zap.AddStacktrace(zapcore.PanicLevel))).Named(name).Sugar()
}
