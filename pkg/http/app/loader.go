package app

import (
	"fmt"
	"net/url"
	"os"
	"sync"

	"github.com/pkg/errors"
)

var (
	ctorMu sync.Mutex
	ctors  = make(map[string]FileLoaderCtor)
)

func init() {
	RegisterFileLoaderCtor("", newLocalLoader)
	RegisterFileLoaderCtor("file", newLocalLoader)
}

// RegisterFileLoaderCtor registers a FileLoader for the specified scheme.
func RegisterFileLoaderCtor(scheme string, ctr FileLoaderCtor) {
	ctorMu.Lock()
	defer ctorMu.Unlock()

	_, exists := ctors[scheme]
	if exists {
		panic(fmt.Sprintf("FileLoader already registered for scheme '%s'", scheme))
	}

	ctors[scheme] = ctr
}

// FileLoaderCtor constructs a FileLoader.
type FileLoaderCtor func() (FileLoader, error)

// FileLoader loads files at a specified URL.
type FileLoader interface {
	Load(url *url.URL) ([]byte, error)
}

// LoadFile loads a file at the specified URL using the corresponding
// registered FileLoader. If no scheme is specified, the local file system is
// used.
func LoadFile(fileURL string) ([]byte, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid file url %s", fileURL)
	}

	ctorMu.Lock()
	ctr, exists := ctors[u.Scheme]
	ctorMu.Unlock()
	if !exists {
		return nil, errors.Errorf("no file loader for %s", u.Scheme)
	}

	l, err := ctr()
	if err != nil {
		return nil, errors.Wrapf(err, "failed get loader for '%s'", fileURL)
	}

	return l.Load(u)
}

type localLoader struct{}

func newLocalLoader() (FileLoader, error) {
	return localLoader{}, nil
}

func (localLoader) Load(u *url.URL) ([]byte, error) {
	path := u.Path
	if len(u.Host) > 0 {
		path = u.Host + path
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return b, nil
}
