package reactivity

import (
	"cmp"
	"errors"
	"slices"
)

// Track records that the active effect reads key on target. Reads outside
// of any effect are not tracked.
//
// A target is identified by its address and its type T. Any non-nil pointer
// works, including globals and zero-sized values; note that all zero-sized
// values of one type may share an address and then count as one target.
// Nil targets are ignored.
func Track[T any](rs *ReactiveSystem, target *T, key string) {
	rs.assertOwner()
	active := rs.ActiveEffect()
	if active == nil || target == nil {
		return
	}

	deps := lookupDeps(rs.bucket, target, key, true)
	if deps.Contains(active) {
		return
	}
	deps.Add(active)
	active.deps = append(active.deps, deps)
}

// Trigger notifies every effect subscribed to key on target. Effects with a
// scheduler are handed to it, the rest re-run synchronously. The effect that
// is currently running is skipped so an effect writing a field it reads does
// not recurse into itself.
//
// Subscribers are snapshotted before any of them runs and are notified in
// registration order. All of them are notified even if some fail; the
// failures are joined.
//
// Targets are identified as in Track. A nil target or one nothing tracked
// is a no-op.
func Trigger[T any](rs *ReactiveSystem, target *T, key string) error {
	rs.assertOwner()
	if target == nil {
		return nil
	}

	deps := lookupDeps(rs.bucket, target, key, false)
	if deps == nil {
		return nil
	}

	active := rs.ActiveEffect()
	toRun := make([]*Effect, 0, deps.Cardinality())
	deps.Each(func(e *Effect) bool {
		if e != active {
			toRun = append(toRun, e)
		}
		return false
	})
	if len(toRun) == 0 {
		return nil
	}
	slices.SortFunc(toRun, func(a, b *Effect) int {
		return cmp.Compare(a.id, b.id)
	})

	rs.logger.Debug("trigger", "key", key, "effects", len(toRun))
	rs.instr.Triggered(key, len(toRun))

	var errs []error
	for _, e := range toRun {
		if err := e.notify(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
