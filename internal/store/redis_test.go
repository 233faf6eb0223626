package store

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(WithAddr(mr.Addr()))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestRedisStoreRequiresAddr(t *testing.T) {
	_, err := NewRedisStore()
	require.Error(t, err)
}
