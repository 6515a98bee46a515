// Package object is the component runtime the daemon builds its workers on.
//
// It provides a two-tier class system: an abstract threaded root owned by a
// Registry, and concrete classes initialized under it. A class inherits the
// root's method table and replaces only its Start and Stop entries. Every
// instance of a concrete class runs on its own goroutine, can be suspended
// with Sleep or Wait and resumed with Wakeup, and is kept in its class's
// instance cache until destroyed.
//
// Lifecycle of an instance:
//
//	CREATED -> RUNNING -> SLEEPING <-> RUNNING -> STOPPED -> DESTROYED
//
// Usage:
//
//	reg := object.NewRegistry()
//	cls := reg.NewClass(id, "worker", func() object.Instance { return &worker{} })
//	_ = cls.Init(reg.Root())
//	_ = cls.Override(object.Overrides{Start: run, Stop: release})
//	inst, err := cls.Create()
//	...
//	_ = cls.Destroy(inst)
//	_ = cls.Fini(reg.Root())
package object
