// Package model defines the entities persisted by the repository and the
// shapes exposed by the public read paths.
//
// Task configuration is a closed set of kinds. TaskConfig can only be
// implemented inside this package, and every site that needs per-kind
// behaviour switches over TaskKind, so adding a kind fails to compile until
// each of them handles it.
package model
