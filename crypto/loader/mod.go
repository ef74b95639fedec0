// Package loader defines an abstraction to load a private key from a
// persistent storage, or to generate it the first time it is needed.
package loader

// Generator is the interface to implement to generate a key.
type Generator interface {
	Generate() ([]byte, error)
}

// Loader is an abstraction to load a key from a storage.
type Loader interface {
	// LoadOrCreate loads the key if it exists, otherwise it generates a new
	// one and stores it.
	LoadOrCreate(Generator) ([]byte, error)

	// Load loads the key and fails if it does not exist.
	Load() ([]byte, error)
}
