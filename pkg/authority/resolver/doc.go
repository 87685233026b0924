// Package resolver maps principal identifiers to authority levels.
//
// The kernel never inspects the shape of a principal string; all identity
// knowledge lives behind the Resolver interface. StaticResolver serves a
// fixed in-memory mapping, FileResolver loads the mapping from a YAML file
// and reloads it when the file changes on disk.
package resolver
