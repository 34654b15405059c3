package mixer

import (
	"context"
	"sync"

	"github.com/AlexeyBerezhnoy/mixer/scheme"
)

var defaultMixer = sync.OnceValue(func() *Mixer {
	m, err := New()
	if err != nil {
		panic(err)
	}
	return m
})

// Default returns the process-wide Mixer. It is created on first use with the
// default configuration and lives as long as the process. Libraries should
// build their own Mixer with New instead.
func Default() *Mixer { return defaultMixer() }

// Mix blends an instance with the default Mixer.
func Mix(ctx context.Context, s any, overrides Values) (*scheme.Instance, error) {
	return Default().Blend(ctx, s, overrides)
}
