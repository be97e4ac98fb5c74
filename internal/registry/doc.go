// Package registry stores the identity of every live GPU object of one kind.
//
// Ids are never generated here. They come from the native layer and are only
// stored and validated:
//
//	r := registry.New[*Buffer]()
//	_ = r.Add(id, buf)
//	buf, err := r.Get(id)
//	err = r.Remove(id)
//
// Removed ids leave a tombstone so that a second removal, or a lookup of a
// removed id, reports ErrDeleted instead of ErrUnknown. A tombstone is
// cleared when the native layer hands the same id out again.
//
// Registry is not safe for concurrent use.
package registry
