package reactivity

import (
	"reflect"
	"runtime"
	"sync"
	"unsafe"
	"weak"

	mapset "github.com/deckarep/golang-set/v2"
)

// DependencySet holds the effects subscribed to one (target, key) pair.
// Adding an effect that is already present is a no-op.
type DependencySet = mapset.Set[*Effect]

func newDependencySet() DependencySet {
	// only the system's goroutine touches dependency sets
	return mapset.NewThreadUnsafeSet[*Effect]()
}

// targetID is the identity of a target: its address and its static type, so
// a struct and its first field are distinct targets.
type targetID struct {
	addr uintptr
	typ  reflect.Type
}

type targetEntry struct {
	id   targetID
	keys map[string]DependencySet
	// ref is a weak.Pointer[T] for heap targets. Globals and zero-sized
	// values are never reclaimed and have no ref.
	ref any
}

// Bucket maps target identity to its per-key dependency sets.
//
// Targets are not kept alive by the bucket: a cleanup registered on each
// heap target drops its entry once the target is reclaimed. The mutex exists
// for that cleanup, which runs on a runtime goroutine.
type Bucket struct {
	mu      sync.Mutex
	targets map[targetID]*targetEntry
}

func newBucket() *Bucket {
	return &Bucket{
		targets: map[targetID]*targetEntry{},
	}
}

// Len reports how many targets have tracking data.
func (b *Bucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.targets)
}

func (b *Bucket) forget(e *targetEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.targets[e.id] == e {
		delete(b.targets, e.id)
	}
}

func identityOf[T any](target *T) targetID {
	return targetID{
		addr: uintptr(unsafe.Pointer(target)),
		typ:  reflect.TypeFor[T](),
	}
}

// live reports whether e still describes target. An entry goes stale when
// its target was reclaimed and the address reused before the cleanup ran.
func live[T any](e *targetEntry, target *T) bool {
	if e.ref == nil {
		return true
	}
	return e.ref.(weak.Pointer[T]).Value() == target
}

func lookupDeps[T any](b *Bucket, target *T, key string, create bool) DependencySet {
	id := identityOf(target)

	b.mu.Lock()
	e, ok := b.targets[id]
	if ok && !live(e, target) {
		delete(b.targets, id)
		ok = false
	}
	b.mu.Unlock()

	if !ok {
		if !create {
			return nil
		}
		e = registerTarget(b, id, target)
	}
	runtime.KeepAlive(target)

	deps, ok := e.keys[key]
	if !ok && create {
		deps = newDependencySet()
		e.keys[key] = deps
	}
	return deps
}

func registerTarget[T any](b *Bucket, id targetID, target *T) *targetEntry {
	e := &targetEntry{id: id, keys: map[string]DependencySet{}}
	// AddCleanup is a no-op for pointers outside the heap, which are also
	// the pointers weak.Make rejects.
	if runtime.AddCleanup(target, b.forget, e) != (runtime.Cleanup{}) {
		e.ref = weak.Make(target)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.targets[id] = e
	return e
}
