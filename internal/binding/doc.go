// Package binding implements a generic binding point table.
//
// A binding point is a named slot that holds at most one object at a time.
// Points are declared in classes, and every class carries a Policy:
//
//   - MultiPoint: an object may occupy several distinct points of the class
//     at once (buffers). Otherwise an object sits in at most one point.
//   - Typed: the first point an object is bound to becomes its type for the
//     rest of its life (textures). Binding it to any other point fails.
//
// The table is the single source of truth for occupancy in both directions:
// point -> occupant and occupant -> points.
//
// Table is not safe for concurrent use.
package binding
