package mixer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"sync"

	"github.com/AlexeyBerezhnoy/mixer/directive"
	"github.com/AlexeyBerezhnoy/mixer/gen"
	"github.com/AlexeyBerezhnoy/mixer/override"
	"github.com/AlexeyBerezhnoy/mixer/scheme"
)

// Values maps override keys to literals, directives or deferred sequences.
// Keys use "__" to step into relations.
type Values = override.Values

// PostProcess runs on every blended instance of a registered scheme, before
// it is committed. A nil result keeps the instance.
type PostProcess func(ctx context.Context, inst *scheme.Instance) (*scheme.Instance, error)

// Mixer blends instances of schemes. A Mixer is safe for concurrent use.
// Views returned by With and Ctx share its sequence counters and
// registrations but carry their own configuration.
type Mixer struct {
	cfg   Config
	log   *slog.Logger
	state *state
}

// state is shared by a Mixer and its views.
type state struct {
	mu   sync.Mutex
	seqs map[*directive.Sequence]int

	regMu sync.RWMutex
	regs  map[string]*registration
}

// registration holds the generators and hooks of a scheme.
type registration struct {
	values map[string]any
	post   []PostProcess
}

func (r *registration) value(name string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.values[name]
	return v, ok
}

func (r *registration) hooks() []PostProcess {
	if r == nil {
		return nil
	}
	return r.post
}

// New returns a Mixer configured by the given options. By default it
// generates structural values, commits to a backend that stores nothing and
// resolves schemes from a fresh registry. Without WithBackend, SELECT finds
// nothing and Guard always blends a new instance.
func New(opts ...Option) (*Mixer, error) {
	cfg := defaultConfig()
	if err := cfg.apply(opts); err != nil {
		return nil, err
	}
	return newMixer(cfg, &state{
		seqs: make(map[*directive.Sequence]int),
		regs: make(map[string]*registration),
	}), nil
}

func newMixer(cfg Config, st *state) *Mixer {
	watchRegistry(cfg.Registry)
	return &Mixer{
		cfg:   cfg,
		state: st,
		log:   slog.New(levelHandler{level: cfg.LogLevel, Handler: cfg.Logger.Handler()}),
	}
}

// With returns a view of the Mixer with the options applied on top of its
// configuration. The Mixer itself is not modified.
func (m *Mixer) With(opts ...Option) (*Mixer, error) {
	cfg := m.cfg
	if err := cfg.apply(opts); err != nil {
		return nil, err
	}
	return newMixer(cfg, m.state), nil
}

// Ctx runs fn with a view of the Mixer configured by the options. The
// configuration of m is untouched whatever fn returns, so nothing has to be
// restored when fn fails or panics.
func (m *Mixer) Ctx(fn func(*Mixer) error, opts ...Option) error {
	v, err := m.With(opts...)
	if err != nil {
		return err
	}
	return fn(v)
}

// Config returns the active configuration.
func (m *Mixer) Config() Config { return m.cfg }

// Registry returns the scheme registry of the Mixer.
func (m *Mixer) Registry() *scheme.Registry { return m.cfg.Registry }

// Blend returns a new instance of the scheme. The scheme is a registry key,
// a *scheme.Descriptor, a definition or a struct value.
//
//	user, err := m.Blend(ctx, "app.User", mixer.Values{
//		"username":   m.Sequence("user{0}"),
//		"hat__color": "red",
//	})
func (m *Mixer) Blend(ctx context.Context, s any, overrides Values) (*scheme.Instance, error) {
	set, err := override.Parse(overrides)
	if err != nil {
		return nil, &PathResolutionError{Scheme: schemeName(s), Reason: "invalid override key", Err: err}
	}
	return m.BlendSet(ctx, s, set)
}

// BlendSet is like Blend with overrides given as a parsed set.
func (m *Mixer) BlendSet(ctx context.Context, s any, set override.Set) (*scheme.Instance, error) {
	d, err := m.prepare(s, set)
	if err != nil {
		return nil, err
	}
	return m.blend(ctx, d, set, m.cfg.Fake)
}

func (m *Mixer) prepare(s any, set override.Set) (*scheme.Descriptor, error) {
	d, err := m.resolve(s)
	if err != nil {
		return nil, err
	}
	if err := validate(d.Name, d, set, nil); err != nil {
		return nil, err
	}
	return d, nil
}

func (m *Mixer) resolve(s any) (*scheme.Descriptor, error) {
	d, err := m.cfg.Registry.Resolve(s)
	if err != nil {
		return nil, &SchemeResolutionError{Scheme: schemeName(s), Err: err}
	}
	return d, nil
}

// Cycle returns a helper blending n instances at once.
func (m *Mixer) Cycle(n int) *Cycler {
	return &Cycler{m: m, n: n}
}

// Cycler blends batches of instances.
type Cycler struct {
	m *Mixer
	n int
}

// Blend returns n independently blended instances in order. All of them
// share the overrides, so sequences advance across the batch.
func (c *Cycler) Blend(ctx context.Context, s any, overrides Values) ([]*scheme.Instance, error) {
	if c.n < 0 {
		return nil, &ConfigError{Option: "Cycle", Err: fmt.Errorf("negative count %d", c.n)}
	}
	set, err := override.Parse(overrides)
	if err != nil {
		return nil, &PathResolutionError{Scheme: schemeName(s), Reason: "invalid override key", Err: err}
	}
	d, err := c.m.prepare(s, set)
	if err != nil {
		return nil, err
	}
	insts := make([]*scheme.Instance, 0, c.n)
	for range c.n {
		inst, err := c.m.blend(ctx, d, set, c.m.cfg.Fake)
		if err != nil {
			return nil, err
		}
		insts = append(insts, inst)
	}
	return insts, nil
}

// Guard returns a helper that reuses stored instances matching the filters.
// Matches are looked up in the backend, so a Mixer without one set by
// WithBackend never finds any.
func (m *Mixer) Guard(filters Values) *Guarded {
	return m.GuardBy(directive.Guard{Filters: filters})
}

// GuardBy is like Guard with the filters given as a GUARD directive.
func (m *Mixer) GuardBy(d directive.Guard) *Guarded {
	return &Guarded{m: m, guard: d}
}

// Guarded blends instances unless a matching one is already stored.
type Guarded struct {
	m     *Mixer
	guard directive.Guard
}

// Blend returns the stored instance of the scheme whose fields equal the
// filters. When there is none, or persistence is disabled, it blends a new
// instance with the filters applied as overrides.
func (g *Guarded) Blend(ctx context.Context, s any, overrides Values) (*scheme.Instance, error) {
	d, err := g.m.resolve(s)
	if err != nil {
		return nil, err
	}
	filters := g.guard.Filters
	for name := range filters {
		if _, ok := d.Field(name); !ok {
			return nil, &SchemeResolutionError{Scheme: d.Name, Field: name}
		}
	}
	if g.m.cfg.Commit {
		if _, ok := g.m.cfg.Backend.(nopBackend); ok {
			g.m.log.DebugContext(ctx, "guard without a backend, blending a new instance", "scheme", d.Name)
		}
		found, err := g.m.cfg.Backend.Select(ctx, d, filters)
		if err != nil {
			return nil, err
		}
		if found != nil {
			g.m.log.DebugContext(ctx, "guard matched a stored instance", "scheme", d.Name, "id", found.ID())
			return found, nil
		}
	}
	merged := maps.Clone(filters)
	if merged == nil {
		merged = make(Values, len(overrides))
	}
	maps.Copy(merged, overrides)
	return g.m.Blend(ctx, d, merged)
}

// Register attaches field generators and post-processing hooks to a scheme,
// for this Mixer and its views only. Generators rank below caller overrides
// and above field defaults. A generator is a literal, a directive, a
// gen.Sequence, a gen.Producer or a func() any. Registering a scheme again
// replaces its registration.
func (m *Mixer) Register(s any, generators map[string]any, postprocess ...PostProcess) error {
	d, err := m.resolve(s)
	if err != nil {
		return err
	}
	r := &registration{
		values: make(map[string]any, len(generators)),
		post:   postprocess,
	}
	for name, g := range generators {
		if _, ok := d.Field(name); !ok {
			return &SchemeResolutionError{Scheme: d.Name, Field: name}
		}
		switch g := g.(type) {
		case gen.Producer:
			r.values[name] = g()
		case func() any:
			r.values[name] = gen.SequenceFunc(g)
		default:
			r.values[name] = g
		}
	}
	m.state.regMu.Lock()
	m.state.regs[d.Name] = r
	m.state.regMu.Unlock()
	return nil
}

func (m *Mixer) registration(d *scheme.Descriptor) *registration {
	m.state.regMu.RLock()
	defer m.state.regMu.RUnlock()
	return m.state.regs[d.Name]
}

// Get returns the stored instance of the scheme with the given identity.
func (m *Mixer) Get(ctx context.Context, s any, id any) (*scheme.Instance, error) {
	d, err := m.resolve(s)
	if err != nil {
		return nil, err
	}
	if !m.cfg.Commit {
		return nil, &ConfigError{Option: "Commit", Err: errors.New("persistence is disabled")}
	}
	return m.cfg.Backend.Get(ctx, d, id)
}

// Invalidate drops the cached descriptor and blending strategies of the
// scheme. It reports whether a descriptor was dropped.
func (m *Mixer) Invalidate(s any) bool {
	name, ok := s.(string)
	if !ok {
		d, err := m.resolve(s)
		if err != nil {
			return false
		}
		name = d.Name
	}
	return m.cfg.Registry.Invalidate(name)
}

// next advances the counter of the sequence and returns its value.
func (m *Mixer) next(s *directive.Sequence) any {
	m.state.mu.Lock()
	n := m.state.seqs[s]
	m.state.seqs[s] = n + 1
	m.state.mu.Unlock()
	return s.Value(n)
}

func (m *Mixer) gap(ctx context.Context, fd *scheme.FieldDescriptor) {
	w := &GeneratorGapWarning{Field: fd.Name, Type: fd.Type}
	if o := fd.Owner(); o != nil {
		w.Scheme = o.Name
	}
	m.log.WarnContext(ctx, "no generator for field, using a placeholder",
		"scheme", w.Scheme, "field", w.Field, "type", w.Type.String())
	if m.cfg.WarningHandler != nil {
		m.cfg.WarningHandler(w)
	}
}

func schemeName(s any) string {
	switch s := s.(type) {
	case string:
		return s
	case *scheme.Descriptor:
		return s.Name
	case reflect.Type:
		return s.String()
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("%T", s)
}
