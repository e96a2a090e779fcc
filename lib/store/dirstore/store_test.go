package dirstore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ValentinKolb/poolfs/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.IFileStore {
	t.Helper()
	s, err := NewDirStore(filepath.Join(t.TempDir(), "server_files"))
	require.NoError(t, err)
	return s
}

func TestNewDirStoreCreatesDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	s, err := NewDirStore(root)
	require.NoError(t, err)
	assert.Equal(t, root, s.Root())

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = NewDirStore("")
	assert.Equal(t, store.RetCInvalidName, store.CodeOf(err))
}

func TestWriteRead(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Write("hello.txt", []byte("hello world")))
	data, err := s.Read("hello.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)

	// overwrite
	require.NoError(t, s.Write("hello.txt", []byte("bye")))
	data, err = s.Read("hello.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("bye"), data)

	// empty file
	require.NoError(t, s.Write("empty", nil))
	data, err = s.Read("empty")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestReadErrors(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Read("missing.bin")
	require.Error(t, err)
	assert.Equal(t, store.RetCNotFound, store.CodeOf(err))
	assert.Contains(t, err.Error(), "missing.bin")

	_, err = s.Read("")
	assert.Equal(t, store.RetCInvalidName, store.CodeOf(err))

	require.NoError(t, os.Mkdir(filepath.Join(s.Root(), "dir"), 0o755))
	_, err = s.Read("dir")
	assert.Equal(t, store.RetCInternalError, store.CodeOf(err))
}

func TestWriteErrors(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, store.RetCInvalidName, store.CodeOf(s.Write("", []byte("x"))))
	assert.Equal(t, store.RetCInvalidName, store.CodeOf(s.Write(TempPrefix+"x", []byte("x"))))

	// parent directory does not exist
	err := s.Write(filepath.Join("no", "such", "dir.txt"), []byte("x"))
	assert.Equal(t, store.RetCInternalError, store.CodeOf(err))
}

func TestList(t *testing.T) {
	s := newTestStore(t)

	names, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.NotNil(t, names)

	for _, n := range []string{"c.txt", "a.txt", "b.txt"} {
		require.NoError(t, s.Write(n, []byte(n)))
	}
	// leftovers of an interrupted upload are hidden
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), TempPrefix+"123"), []byte("x"), 0o644))

	names, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names)
}

func TestListMissingDirectory(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.RemoveAll(s.Root()))

	names, err := s.List()
	assert.Nil(t, names)
	require.Error(t, err)
	assert.Equal(t, store.RetCInternalError, store.CodeOf(err))
	assert.Contains(t, err.Error(), "cannot list store directory")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("x.bin", make([]byte, 4096)))

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "x.bin", entries[0].Name())
}

// TestConcurrentWriteSameName tests that readers only ever see one complete version
func TestConcurrentWriteSameName(t *testing.T) {
	s := newTestStore(t)

	const (
		writers = 8
		size    = 256 << 10
	)

	contents := make([][]byte, writers)
	for i := range contents {
		contents[i] = make([]byte, size)
		for j := range contents[i] {
			contents[i][j] = byte('a' + i)
		}
	}
	require.NoError(t, s.Write("shared.bin", contents[0]))

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Write("shared.bin", contents[i]))
		}(i)
	}

	done := make(chan struct{})
	var readErr error
	go func() {
		defer close(done)
		for k := 0; k < 50; k++ {
			data, err := s.Read("shared.bin")
			if err != nil {
				readErr = err
				return
			}
			if !isOneVersion(data, contents) {
				readErr = fmt.Errorf("torn read of %d bytes", len(data))
				return
			}
		}
	}()

	wg.Wait()
	<-done
	require.NoError(t, readErr)

	final, err := s.Read("shared.bin")
	require.NoError(t, err)
	assert.True(t, isOneVersion(final, contents))
}

func isOneVersion(data []byte, versions [][]byte) bool {
	for _, v := range versions {
		if string(v) == string(data) {
			return true
		}
	}
	return false
}
