package loader

import (
	"encoding/hex"
	"os"
	"strings"

	"golang.org/x/xerrors"
)

// fileLoader stores a key in a file as a hexadecimal string, so that it can be
// copied around as text.
//
// - implements loader.Loader
type fileLoader struct {
	path string

	readFn  func(path string) ([]byte, error)
	writeFn func(path string, data []byte, perm os.FileMode) error
	statFn  func(path string) (os.FileInfo, error)
}

// NewFileLoader creates a new loader of the key in the file.
func NewFileLoader(path string) Loader {
	return fileLoader{
		path:    path,
		readFn:  os.ReadFile,
		writeFn: os.WriteFile,
		statFn:  os.Stat,
	}
}

// LoadOrCreate implements loader.Loader. A generated key is written to a file
// that only the current user can read and write (0600).
func (l fileLoader) LoadOrCreate(g Generator) ([]byte, error) {
	_, err := l.statFn(l.path)
	if !os.IsNotExist(err) {
		return l.Load()
	}

	data, err := g.Generate()
	if err != nil {
		return nil, xerrors.Errorf("generator failed: %v", err)
	}

	err = l.writeFn(l.path, []byte(hex.EncodeToString(data)+"\n"), 0600)
	if err != nil {
		return nil, xerrors.Errorf("while writing: %v", err)
	}

	return data, nil
}

// Load implements loader.Loader.
func (l fileLoader) Load() ([]byte, error) {
	text, err := l.readFn(l.path)
	if err != nil {
		return nil, xerrors.Errorf("while reading: %v", err)
	}

	data, err := hex.DecodeString(strings.TrimSpace(string(text)))
	if err != nil {
		return nil, xerrors.Errorf("malformed key: %v", err)
	}

	return data, nil
}
