// Package validation screens externally supplied repository inputs before they
// reach the git engine.
//
// The validators reject traversal sequences, absolute paths, and shell
// metacharacters in paths, branch names, and commit messages. They return the
// normalized value or an InputError; nothing in this package mutates state.
package validation
