package mixer

import (
	"fmt"
	"sync"

	"github.com/AlexeyBerezhnoy/mixer/gen"
	"github.com/AlexeyBerezhnoy/mixer/scheme"

	"golang.org/x/sync/singleflight"
)

// blender is the prepared strategy of a scheme for one generation mode: a
// running value sequence per primitive field. Blenders are immutable once
// built and shared by all Mixers of the process.
type blender struct {
	desc *scheme.Descriptor
	fake bool
	// seqs holds one sequence per field, nil for relations, identities the
	// store assigns and types without a generator.
	seqs []gen.Sequence
	gaps []bool
}

func newBlender(d *scheme.Descriptor, fake bool, f Factory) *blender {
	b := &blender{
		desc: d,
		fake: fake,
		seqs: make([]gen.Sequence, len(d.Fields)),
		gaps: make([]bool, len(d.Fields)),
	}
	for i, fd := range d.Fields {
		if fd.IsRelation() || fd.AutoID() {
			continue
		}
		// Identities stay structural so fake corpora cannot repeat them.
		p, ok := f.Producer(&fd.Descriptor, fake && !fd.IsID())
		if !ok || p == nil {
			b.gaps[i] = true
			continue
		}
		b.seqs[i] = p()
	}
	return b
}

// next draws the generated value of the i-th field. It reports false for
// fields without a generator.
func (b *blender) next(i int) (any, bool) {
	if b.seqs[i] == nil {
		return nil, false
	}
	return b.seqs[i].Next(), true
}

type blenderKey struct {
	desc    *scheme.Descriptor
	fake    bool
	factory Factory
}

// blenders caches the strategies of the process.
var blenders struct {
	m     sync.Map // blenderKey -> *blender
	group singleflight.Group
	hooks sync.Map // *scheme.Registry -> struct{}
}

// blenderFor returns the cached blender of the scheme, building it once.
func blenderFor(d *scheme.Descriptor, fake bool, f Factory) *blender {
	key := blenderKey{desc: d, fake: fake, factory: f}
	if b, ok := blenders.m.Load(key); ok {
		return b.(*blender)
	}
	v, _, _ := blenders.group.Do(fmt.Sprintf("%p/%t/%p", d, fake, f), func() (any, error) {
		if b, ok := blenders.m.Load(key); ok {
			return b, nil
		}
		b := newBlender(d, fake, f)
		blenders.m.Store(key, b)
		return b, nil
	})
	return v.(*blender)
}

// watchRegistry drops the blenders of descriptors the registry invalidates.
func watchRegistry(r *scheme.Registry) {
	if _, loaded := blenders.hooks.LoadOrStore(r, struct{}{}); loaded {
		return
	}
	r.OnInvalidate(forget)
}

func forget(d *scheme.Descriptor) {
	blenders.m.Range(func(k, _ any) bool {
		if k.(blenderKey).desc == d {
			blenders.m.Delete(k)
		}
		return true
	})
}
