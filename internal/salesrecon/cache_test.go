package salesrecon

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreGetPut(t *testing.T) {
	s := NewStore[Product]()
	_, ok := s.Get("ABC")
	require.False(t, ok)

	s.Put("ABC", Product{Code: "ABC", Unit: "Hop"})
	got, ok := s.Get("ABC")
	require.True(t, ok)
	require.Equal(t, "Hop", got.Unit)
	require.True(t, s.Has("ABC"))
	require.Equal(t, 1, s.Len())
}

func TestStorePutKeepsFirstValue(t *testing.T) {
	s := NewStore[Product]()
	require.True(t, s.Put("ABC", Product{Code: "ABC", Unit: "Hop"}))
	require.False(t, s.Put("ABC", Product{Code: "ABC", Unit: "Chai"}))

	got, ok := s.Get("ABC")
	require.True(t, ok)
	require.Equal(t, "Hop", got.Unit)
	require.Equal(t, 1, s.Len())
}

func TestStoreConcurrentWritesCommute(t *testing.T) {
	s := NewStore[int]()
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%10)
			s.Put(key, i%10)
			_, _ = s.Get(key)
		}()
	}
	wg.Wait()

	require.Equal(t, 10, s.Len())
	for i := range 10 {
		v, ok := s.Get(fmt.Sprintf("k%d", i))
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestNewCachesAreIndependent(t *testing.T) {
	a, b := NewCaches(), NewCaches()
	a.Products.Put("X", Product{Code: "X"})
	require.False(t, b.Products.Has("X"))
	require.Zero(t, a.Departments.Len())
	require.Zero(t, a.Orders.Len())
}
