// Package gen produces values for scheme fields.
//
// A Producer is a zero-argument factory of infinite Sequences. Producers
// hold no state of their own, so one producer can be shared by any number
// of blends; each call starts a fresh sequence.
package gen

import (
	"iter"
	"math/rand/v2"
	"sync"
)

// Sequence is a lazy, infinite source of values. A Sequence passed as an
// override value is pulled once per blend.
type Sequence interface {
	Next() any
}

// SequenceFunc adapts a function to a Sequence.
type SequenceFunc func() any

// Next implements Sequence.
func (f SequenceFunc) Next() any { return f() }

// Producer returns a fresh sequence.
type Producer func() Sequence

// Func returns a producer calling fn for every value.
func Func(fn func() any) Producer {
	return func() Sequence { return SequenceFunc(fn) }
}

// Constant returns a producer always yielding v.
func Constant(v any) Producer {
	return Func(func() any { return v })
}

// Choice returns a producer drawing uniformly among values.
func Choice(values ...any) Producer {
	if len(values) == 0 {
		return Constant(nil)
	}
	return Func(func() any { return values[rand.IntN(len(values))] })
}

// Cycle returns a producer yielding values in order, starting over after the
// last one.
func Cycle(values ...any) Producer {
	return func() Sequence {
		var (
			mu sync.Mutex
			i  int
		)
		return SequenceFunc(func() any {
			if len(values) == 0 {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			v := values[i%len(values)]
			i++
			return v
		})
	}
}

// Counter returns a sequence of ints counting up from start.
func Counter(start int) Sequence {
	var (
		mu sync.Mutex
		n  = start
	)
	return SequenceFunc(func() any {
		mu.Lock()
		defer mu.Unlock()
		v := n
		n++
		return v
	})
}

// Puller is a Sequence pulling from an iterator. Once the iterator is
// exhausted it yields nil.
type Puller struct {
	mu   sync.Mutex
	next func() (any, bool)
	stop func()
}

// Iter returns a Sequence pulling values from seq. Call Stop to release the
// iterator early.
func Iter(seq iter.Seq[any]) *Puller {
	next, stop := iter.Pull(seq)
	return &Puller{next: next, stop: stop}
}

// Next implements Sequence.
func (p *Puller) Next() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.next()
	if !ok {
		return nil
	}
	return v
}

// Stop releases the underlying iterator.
func (p *Puller) Stop() { p.stop() }
