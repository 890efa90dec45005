package store_test

import (
	"testing"

	"github.com/hanpama/docgraph/internal/store"
	"github.com/hanpama/docgraph/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestBadger(t *testing.T) {
	storetest.Run(t, func(t *testing.T) *store.Store {
		s, err := store.OpenBadger("")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBadgerOnDisk(t *testing.T) {
	storetest.Run(t, func(t *testing.T) *store.Store {
		s, err := store.OpenBadger(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
