package mixer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/AlexeyBerezhnoy/mixer/faker"
	"github.com/AlexeyBerezhnoy/mixer/gen"
	"github.com/AlexeyBerezhnoy/mixer/scheme"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"
)

// Factory builds value producers for fields. *gen.Factory is the default
// implementation. Implementations are used as cache keys and must be
// comparable, which pointer types are.
type Factory interface {
	Producer(fd *field.Descriptor, fake bool) (gen.Producer, bool)
	TypeProducer(t field.Type, fake bool) (gen.Producer, bool)
	CategoryProducer(category string, params faker.Params, fd *field.Descriptor) (gen.Producer, error)
}

// Config holds the configuration of a Mixer.
type Config struct {
	// Fake selects realistic values from the corpus provider instead of
	// structurally valid ones.
	Fake bool
	// Commit persists blended instances through the Backend.
	Commit bool
	// LogLevel is the minimum level of diagnostic records.
	LogLevel slog.Level
	// Factory builds the value producers.
	Factory Factory
	// Backend is the persistence collaborator.
	Backend Backend
	// Registry resolves scheme references.
	Registry *scheme.Registry
	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
	// WarningHandler, if set, receives every generator gap.
	WarningHandler func(*GeneratorGapWarning)
}

// Option configures a Mixer.
type Option func(*Config) error

func defaultConfig() Config {
	return Config{
		Commit:   true,
		LogLevel: slog.LevelWarn,
		Backend:  nopBackend{},
	}
}

func (c *Config) apply(opts []Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return err
		}
	}
	if c.Factory == nil {
		c.Factory = gen.NewFactory()
	}
	if c.Registry == nil {
		c.Registry = scheme.NewRegistry()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// WithFake toggles realistic value generation.
func WithFake(fake bool) Option {
	return func(c *Config) error {
		c.Fake = fake
		return nil
	}
}

// WithCommit toggles persistence of blended instances. With commit disabled
// the backend is never called.
func WithCommit(commit bool) Option {
	return func(c *Config) error {
		c.Commit = commit
		return nil
	}
}

// WithLogLevel sets the minimum level of diagnostic records. It has no
// effect on the blended values.
func WithLogLevel(level slog.Level) Option {
	return func(c *Config) error {
		c.LogLevel = level
		return nil
	}
}

// WithFactory sets the generator factory.
func WithFactory(f Factory) Option {
	return func(c *Config) error {
		if f == nil {
			return &ConfigError{Option: "Factory", Err: errors.New("factory cannot be nil")}
		}
		c.Factory = f
		return nil
	}
}

// WithProvider sets a default generator factory drawing realistic values
// from the given corpus provider.
func WithProvider(p faker.Provider) Option {
	return func(c *Config) error {
		if p == nil {
			return &ConfigError{Option: "Provider", Err: errors.New("provider cannot be nil")}
		}
		c.Factory = gen.NewFactory(gen.WithProvider(p))
		return nil
	}
}

// WithBackend sets the persistence collaborator. A nil backend disables
// persistence calls.
func WithBackend(b Backend) Option {
	return func(c *Config) error {
		if b == nil {
			b = nopBackend{}
		}
		c.Backend = b
		return nil
	}
}

// WithRegistry sets the scheme registry.
func WithRegistry(r *scheme.Registry) Option {
	return func(c *Config) error {
		if r == nil {
			return &ConfigError{Option: "Registry", Err: errors.New("registry cannot be nil")}
		}
		c.Registry = r
		return nil
	}
}

// WithLogger sets the logger receiving diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// WithWarningHandler sets a callback for generator gaps.
func WithWarningHandler(fn func(*GeneratorGapWarning)) Option {
	return func(c *Config) error {
		c.WarningHandler = fn
		return nil
	}
}

// levelHandler drops records below the configured level of a Mixer, so
// scoped views change verbosity without touching the shared handler.
type levelHandler struct {
	level slog.Level
	slog.Handler
}

func (h levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level && h.Handler.Enabled(ctx, level)
}

func (h levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return levelHandler{level: h.level, Handler: h.Handler.WithAttrs(attrs)}
}

func (h levelHandler) WithGroup(name string) slog.Handler {
	return levelHandler{level: h.level, Handler: h.Handler.WithGroup(name)}
}
