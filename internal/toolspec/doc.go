// Package toolspec declares the static registry of tools the server exposes
// for protocol introspection. Descriptors are defined once at process start
// and never mutated.
package toolspec
