// Package dispatch maps tool invocations onto repository operations. The
// dispatcher is a pure per-call function over an immutable repository binding:
// every failure, whether validation or execution, is converted into an error
// result and never escapes as an error value.
package dispatch
