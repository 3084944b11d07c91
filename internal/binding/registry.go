package binding

import (
	"sort"

	"github.com/crander/idlglue/internal/idl"
)

// Registry maps binding model names to their implementations. The finalizer
// consults it through the idl.ModelTable interface; generators retrieve the
// concrete models through Get.
type Registry struct {
	models map[string]Model
}

// NewRegistry returns a registry seeded with the built-in models.
func NewRegistry() *Registry {
	r := &Registry{models: map[string]Model{}}
	for _, m := range []Model{
		newPodModel(),
		newEnumModel(),
		newByPointerModel(),
		newByValueModel(),
		newUnsizedArrayModel(),
		newSizedArrayModel(),
		newNullableModel(),
		newCallbackModel(),
	} {
		r.Register(m)
	}
	return r
}

// Register adds or replaces a model under its own name.
func (r *Registry) Register(m Model) {
	r.models[m.BindingName()] = m
}

// Model implements idl.ModelTable.
func (r *Registry) Model(name string) (idl.BindingModel, bool) {
	m, ok := r.models[name]
	if !ok {
		return nil, false
	}
	return m, true
}

// Get returns the concrete model registered under name.
func (r *Registry) Get(name string) (Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Names returns the registered model names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
