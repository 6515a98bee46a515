// Package cmap provides a concurrent-safe sharded map.
//
// Keys are spread over a power-of-two number of shards by murmur3 hash,
// each guarded by its own RWMutex. The object cache and the open-session
// table are built on it.
//
// Usage:
//
//	m := cmap.New[uint64, *Entry]()
//	m.Set(id, entry)
//	val, ok := m.Get(id)
//	removed, ok := m.Pop(id)
//
// All operations are thread-safe. Read operations (Get, Has, Range) use
// RLock, write operations (Set, Delete, Pop, Swap) use Lock.
package cmap
