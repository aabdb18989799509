package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)


func Test_BcryptHasher(t *testing.T) {
	t.Parallel()
	
	h := BcryptHasher{}

	t.Run("hash password", func(t *testing.T) {
		got, err := h.Hash("password")
		require.NoError(t, err)

		require.Len(t, got, 60, "bcrypt length is 60 letters as far as i know")
		require.Equal(t, "$2a$", got[:4], "bcrypt has should have prefix '$2a$'")
	})

	t.Run("compare password ok", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		err = h.Compare(hash, "password")
		
		require.NoError(t, err)
	})

	t.Run("fail compare if wrong password", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		err = h.Compare(hash, "wrong")

		require.Error(t, err)
	})

	t.Run("long password ok", func(t *testing.T) {
		// Raw bcrypt chokes on inputs over 72 bytes, the sha256 prehash is
		// there to lift that limit
		long := make([]byte, 200)
		for i := range long {
			long[i] = 'a'
		}

		hash, err := h.Hash(string(long))
		require.NoError(t, err, "long passwords must be hashable")

		require.NoError(t, h.Compare(hash, string(long)))
		require.Error(t, h.Compare(hash, string(long[:199])))
	})

	t.Run("dummy hash matches nothing", func(t *testing.T) {
		err := h.Compare(dummyHash, "password")

		require.Error(t, err, "dummy hash exists only to burn time")
	})
}
