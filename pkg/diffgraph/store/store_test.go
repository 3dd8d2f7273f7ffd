package store_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/diffgraph/pkg/diffgraph"
	"github.com/randalmurphal/diffgraph/pkg/diffgraph/oplib"
	"github.com/randalmurphal/diffgraph/pkg/diffgraph/store"
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) store.Store

func memoryFactory(*testing.T) store.Store { return store.NewMemoryStore() }

func sqliteFactory(t *testing.T) store.Store {
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	return s
}

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	t.Run(name+"/Save_and_Load", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		data := []byte(`{"nodes": []}`)
		require.NoError(t, s.Save("g1", data))

		loaded, err := s.Load("g1")
		require.NoError(t, err)
		assert.Equal(t, data, loaded)
	})

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		_, err := s.Load("missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run(name+"/Save_EmptyName", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		assert.ErrorIs(t, s.Save("", []byte("x")), store.ErrInvalidName)
	})

	t.Run(name+"/Save_Overwrite_BumpsRevision", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save("g1", []byte("first")))
		require.NoError(t, s.Save("g1", []byte("second!")))

		loaded, err := s.Load("g1")
		require.NoError(t, err)
		assert.Equal(t, []byte("second!"), loaded)

		infos, err := s.List()
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, 2, infos[0].Revision)
		assert.Equal(t, int64(7), infos[0].Size)
		assert.False(t, infos[0].Timestamp.IsZero())
	})

	t.Run(name+"/List_Empty", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		infos, err := s.List()
		require.NoError(t, err)
		assert.Empty(t, infos)
	})

	t.Run(name+"/List_OrderedByName", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		for _, n := range []string{"charlie", "alpha", "bravo"} {
			require.NoError(t, s.Save(n, []byte(n)))
		}

		infos, err := s.List()
		require.NoError(t, err)
		require.Len(t, infos, 3)
		assert.Equal(t, "alpha", infos[0].Name)
		assert.Equal(t, "bravo", infos[1].Name)
		assert.Equal(t, "charlie", infos[2].Name)
		assert.Equal(t, 1, infos[0].Revision)
	})

	t.Run(name+"/Delete", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save("g1", []byte("x")))
		require.NoError(t, s.Delete("g1"))
		_, err := s.Load("g1")
		assert.ErrorIs(t, err, store.ErrNotFound)

		assert.NoError(t, s.Delete("never-existed"))
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		s := factory(t)
		require.NoError(t, s.Close())

		assert.ErrorIs(t, s.Save("g1", []byte("x")), store.ErrStoreClosed)
		_, err := s.Load("g1")
		assert.ErrorIs(t, err, store.ErrStoreClosed)
		_, err = s.List()
		assert.ErrorIs(t, err, store.ErrStoreClosed)
		assert.ErrorIs(t, s.Delete("g1"), store.ErrStoreClosed)
		assert.NoError(t, s.Close())
	})

	t.Run(name+"/Concurrent", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				name := fmt.Sprintf("g%d", i)
				assert.NoError(t, s.Save(name, []byte(name)))
				_, err := s.Load(name)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		infos, err := s.List()
		require.NoError(t, err)
		assert.Len(t, infos, 10)
	})

	t.Run(name+"/GraphRoundTrip", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		lib := oplib.Builtins()
		sq, err := lib.Lookup("square")
		require.NoError(t, err)

		g := diffgraph.NewGraph()
		require.NoError(t, g.AddNode(diffgraph.NewVariable("x", "5")))
		require.NoError(t, g.AddNode(diffgraph.NewOperationNode("y", sq)))
		require.NoError(t, g.Connect("x", "y", oplib.PortX))
		require.NoError(t, g.SetTargetNode("y"))

		require.NoError(t, store.SaveGraph(s, "square", g))

		loaded, err := store.LoadGraph(s, "square", lib)
		require.NoError(t, err)
		assert.Equal(t, g.Snapshot(), loaded.Snapshot())

		_, err = loaded.UpdateFValues()
		require.NoError(t, err)
		_, err = loaded.UpdateDerivatives()
		require.NoError(t, err)
		assert.Equal(t, "10", loaded.NodeDerivative("x"))

		_, err = store.LoadGraph(s, "missing", lib)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run(name+"/LoadGraph_BadDocument", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.Save("junk", []byte("not json")))
		_, err := store.LoadGraph(s, "junk", oplib.Builtins())
		assert.Error(t, err)

		require.NoError(t, s.Save("unknown-op", []byte(`{"differentiationMode":"reverse","nodes":[{"id":"n","type":"operation","operationId":"nope"}]}`)))
		_, err = store.LoadGraph(s, "unknown-op", oplib.Builtins())
		assert.ErrorIs(t, err, diffgraph.ErrUnknownOperation)
	})
}

func TestStoreContract(t *testing.T) {
	storeContractTest(t, "Memory", memoryFactory)
	storeContractTest(t, "SQLite", sqliteFactory)
}

// TestSQLiteStore_Persistence tests that documents survive a reopen.
func TestSQLiteStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphs.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save("g1", []byte("persisted")))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	data, err := s.Load("g1")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), data)
}

// TestSQLiteStore_InvalidPath tests opening a store in a missing directory.
func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "missing", "dir", "graphs.db"))
	assert.Error(t, err)
}

// TestMemoryStore_CopiesData tests that the store does not alias caller slices.
func TestMemoryStore_CopiesData(t *testing.T) {
	s := store.NewMemoryStore()
	data := []byte("abc")
	require.NoError(t, s.Save("g", data))
	data[0] = 'X'

	loaded, err := s.Load("g")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), loaded)

	loaded[0] = 'Y'
	again, _ := s.Load("g")
	assert.Equal(t, []byte("abc"), again)
}
