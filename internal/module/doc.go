// Package module provides the Module base type: a Reporter plus version,
// release, rights and developer metadata, and a Timer that brackets the
// module's work.
//
// Concrete modules embed *Module and construct it with New, passing
// themselves as the owner so their capability markers are recorded.
package module
