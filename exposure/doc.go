// Package exposure evaluates include/exclude lists against endpoint ids.
//
// Exclusion is checked before inclusion, so "everything except env and refresh" is:
//
//	p := exposure.New([]string{"*"}, []string{"env", "refresh"})
//	p.IsExposed("health")  // true
//	p.IsExposed("refresh") // false
//
// A wildcard in Exclude is absolute. Without configuration only health and info are
// exposed.
package exposure
