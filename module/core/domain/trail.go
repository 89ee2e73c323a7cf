package domain

import "sync/atomic"

// tail records how much of a backing array some snapshot has claimed. A snapshot may
// append in place only when its length equals the claim; any other snapshot copies.
type tail[T any] struct {
	first *T
	used  atomic.Int64
}

func appendShared[T any](s []T, v T, t *tail[T]) ([]T, *tail[T]) {
	n := int64(len(s))
	if t != nil && len(s) < cap(s) && t.first == &s[:cap(s)][0] && t.used.CompareAndSwap(n, n+1) {
		return append(s, v), t
	}

	grown := make([]T, len(s), max(2*len(s), 16))
	copy(grown, s)
	grown = append(grown, v)
	next := &tail[T]{first: &grown[0]}
	next.used.Store(n + 1)
	return grown, next
}

// AppendFix returns vm with the marker added to Markers and its coordinate to Path.
// Appending to the newest snapshot is amortized O(1); appending to an older one copies.
func (vm ViewModel) AppendFix(m LocationMarker) ViewModel {
	vm.Markers, vm.markerTail = appendShared(vm.Markers, m, vm.markerTail)
	vm.Path, vm.pathTail = appendShared(vm.Path, m.Coordinate, vm.pathTail)
	return vm
}
