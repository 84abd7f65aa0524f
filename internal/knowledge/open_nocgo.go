//go:build !cgo

package knowledge

import "fmt"

// Open fails without CGO: the KuzuDB driver wraps a C library. The
// in-memory store remains available for tests.
func Open(dbPath string) (Store, error) {
	return nil, fmt.Errorf("knowledge: persistent store requires a cgo build (db path %s)", dbPath)
}
