package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrHeld reports that another tracker run owns the lock file.
var ErrHeld = errors.New("lock already held")

// Acquire creates path exclusively and writes the owning pid into it.
// The returned release func removes the file. A second caller gets
// ErrHeld until the first releases.
func Acquire(path string) (release func(), err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrHeld
		}
		return nil, fmt.Errorf("create lock %s: %w", path, err)
	}
	_, werr := f.WriteString(strconv.Itoa(os.Getpid()))
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write lock %s: %w", path, errors.Join(werr, cerr))
	}
	return func() { os.Remove(path) }, nil
}
