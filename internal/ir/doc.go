// Package ir is the intermediate representation consumed by the virtual-thread
// injector (internal/vthread) and the bounds-checker instrumenter
// (internal/boundcheck).
//
// Every node is an immutable, pointer-identified value: rewriters construct a
// new node when a child changes and return the original pointer otherwise, so
// unchanged subtrees are never copied and can be freely shared between an
// input tree and the rewritten tree a pass returns.
package ir
