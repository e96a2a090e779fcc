package dirstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/poolfs/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("store")

const (
	// TempPrefix marks in-flight uploads, such files are hidden from List
	TempPrefix = ".poolfs-upload-"

	filePerm = 0o644
	dirPerm  = 0o755
)

type storeImpl struct {
	root string
}

// NewDirStore creates a store on top of the directory root.
// The directory (and its parents) is created if it does not exist.
func NewDirStore(root string) (store.IFileStore, error) {
	if root == "" {
		return nil, store.NewError(store.RetCInvalidName, "store root must not be empty", nil)
	}
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("cannot create store directory %s", root), err)
	}
	return &storeImpl{root: root}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Root() string {
	return s.root
}

func (s *storeImpl) List() ([]string, error) {
	// os.ReadDir returns the entries sorted by file name
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, "cannot list store directory", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), TempPrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (s *storeImpl) Read(name string) ([]byte, error) {
	if name == "" {
		return nil, store.NewError(store.RetCInvalidName, "filename must not be empty", nil)
	}

	data, err := os.ReadFile(s.path(name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, store.NewError(store.RetCNotFound, fmt.Sprintf("file not found: %s", name), nil)
	case err != nil:
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("cannot read %s", name), err)
	}

	Logger.Debugf("read %s (%d bytes)", name, len(data))
	return data, nil
}

func (s *storeImpl) Write(name string, data []byte) error {
	if name == "" {
		return store.NewError(store.RetCInvalidName, "filename must not be empty", nil)
	}
	if strings.HasPrefix(filepath.Base(name), TempPrefix) {
		return store.NewError(store.RetCInvalidName, fmt.Sprintf("filename must not start with %s", TempPrefix), nil)
	}

	if err := writeFileAtomic(s.path(name), data, filePerm); err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("cannot write %s", name), err)
	}

	Logger.Debugf("wrote %s (%d bytes)", name, len(data))
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// path joins the name onto the root without any sanitization
func (s *storeImpl) path(name string) string {
	return filepath.Join(s.root, name)
}

// writeFileAtomic writes data to a temp file next to path and renames it over path.
// On error the temp file is removed, the target stays untouched.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), TempPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	ok := false
	defer func() {
		_ = tmp.Close()
		if !ok {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	ok = true
	return nil
}
