//go:build cgo

package knowledge

// Open returns the production file-backed store at the given path.
func Open(dbPath string) (Store, error) {
	return NewKuzuFileStore(dbPath)
}
