// Package identifier provides the namespaced, totally ordered labels used for
// formats, modules, and every other reportable entity.
package identifier
