package loadgen

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ValentinKolb/poolfs/lib/store/dirstore"
)

// EnsureDummyFile makes sure dir contains a dummy file of sizeMB MiB random bytes
// and returns its path. An existing file of the right size is reused.
func EnsureDummyFile(dir string, sizeMB int) (string, error) {
	if sizeMB < 1 {
		return "", fmt.Errorf("dummy file size must be at least 1 MB, got %d", sizeMB)
	}
	name := DummyName(sizeMB)
	path := filepath.Join(dir, name)
	size := int64(sizeMB) << 20

	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() && info.Size() == size {
		return path, nil
	}

	st, err := dirstore.NewDirStore(dir)
	if err != nil {
		return "", err
	}

	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		return "", fmt.Errorf("cannot generate random data: %w", err)
	}

	// written through the store so a concurrent reader never sees a partial file
	if err := st.Write(name, data); err != nil {
		return "", err
	}
	Logger.Infof("created dummy file %s (%d MB)", path, sizeMB)
	return path, nil
}
