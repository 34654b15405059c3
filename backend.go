package mixer

import (
	"context"

	"github.com/AlexeyBerezhnoy/mixer/scheme"
)

// Backend is the persistence collaborator of a Mixer. None of its methods
// is called while commit is disabled.
type Backend interface {
	// Commit stores the instance and returns it with the values the store
	// assigned, e.g. its identity.
	Commit(ctx context.Context, inst *scheme.Instance) (*scheme.Instance, error)
	// Select returns a stored instance of the scheme whose fields equal the
	// filters, or nil when there is none.
	Select(ctx context.Context, d *scheme.Descriptor, filters map[string]any) (*scheme.Instance, error)
	// Get returns the stored instance with the given identity.
	Get(ctx context.Context, d *scheme.Descriptor, id any) (*scheme.Instance, error)
	// Link records the members of a many relation of a stored instance.
	Link(ctx context.Context, owner *scheme.Instance, rel *scheme.FieldDescriptor, members []*scheme.Instance) error
}

// nopBackend stores nothing.
type nopBackend struct{}

func (nopBackend) Commit(_ context.Context, inst *scheme.Instance) (*scheme.Instance, error) {
	return inst, nil
}

func (nopBackend) Select(context.Context, *scheme.Descriptor, map[string]any) (*scheme.Instance, error) {
	return nil, nil
}

func (nopBackend) Get(_ context.Context, d *scheme.Descriptor, id any) (*scheme.Instance, error) {
	return nil, &scheme.NotFoundError{Name: d.Name}
}

func (nopBackend) Link(context.Context, *scheme.Instance, *scheme.FieldDescriptor, []*scheme.Instance) error {
	return nil
}
