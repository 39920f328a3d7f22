package reactivity

import (
	"sync"

	"github.com/petermattis/goid"
)

var systems sync.Map

// ForGoroutine returns the system bound to the calling goroutine, creating
// it with opts on first use. Options are ignored once the system exists.
func ForGoroutine(opts ...Option) *ReactiveSystem {
	gid := currentGID()
	if rs, ok := systems.Load(gid); ok {
		return rs.(*ReactiveSystem)
	}
	rs := NewReactiveSystem(opts...)
	systems.Store(gid, rs)
	return rs
}

// ReleaseGoroutine forgets the calling goroutine's system, if any.
func ReleaseGoroutine() {
	systems.Delete(currentGID())
}

func currentGID() int64 {
	return goid.Get()
}

func (rs *ReactiveSystem) assertOwner() {
	if rs.checkGoroutine && currentGID() != rs.ownerGID {
		panic(ErrWrongGoroutine)
	}
}
