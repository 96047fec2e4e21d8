// Package scene is the in-memory host scene graph the assembly engine drives.
//
// Objects form a single-parent hierarchy with unique names. Each object owns
// an ordered set of typed attributes; attributes may be multi (sparse,
// index-addressed slots) and any attribute or slot may be driven by an input
// plug from another object. Plugs evaluate live: a driven matrix attribute
// always reports its driver's current world matrix, and a message attribute
// reports the connected object rather than a copy of it.
//
// The package also models the host conveniences the engine relies on:
// selection, undo chunks, subtree duplication and blackboxing of published
// containers. It is deliberately single-threaded; callers serialise access.
package scene
