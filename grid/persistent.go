package grid

// Capacitor is anything that hands out handles below Capacity().
type Capacitor interface {
	Capacity() int
}

/*
PersistentContainer attaches a value of type T to every cell handle, leaf or not. Values stay
attached to their cell across Adapt; call Resize after Adapt so cells created by it have storage.
*/
type PersistentContainer[T any] struct {
	g    Capacitor
	data []T
}

func NewPersistentContainer[T any](g Capacitor) (pc *PersistentContainer[T]) {
	pc = &PersistentContainer[T]{g: g}
	pc.Resize()
	return
}

func (pc *PersistentContainer[T]) At(h Handle) *T {
	return &pc.data[h]
}

// Resize grows the storage to the grid capacity; new slots hold the zero value.
func (pc *PersistentContainer[T]) Resize() {
	if n := pc.g.Capacity(); n > len(pc.data) {
		pc.data = append(pc.data, make([]T, n-len(pc.data))...)
	}
}

// Clear resets every slot to the zero value.
func (pc *PersistentContainer[T]) Clear() {
	var zero T
	for i := range pc.data {
		pc.data[i] = zero
	}
}
