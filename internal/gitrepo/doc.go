// Package gitrepo binds a working repository on disk to the operations the
// server exposes. Read-only queries use go-git directly while mutating
// operations shell out to the git executable so that hooks, credential
// helpers, and merge machinery behave exactly as they do for interactive use.
package gitrepo
