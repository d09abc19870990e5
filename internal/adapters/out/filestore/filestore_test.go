package filestore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"storyforge/internal/adapters/out/filestore"
	"storyforge/internal/pkg/errs"
)

func TestPutAndGetRoundTrip(t *testing.T) {
	store, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	key := "books/abc/scenes/page-01.png"
	data := []byte("png-bytes")

	require.NoError(t, store.Put(t.Context(), key, data))

	got, err := store.Get(t.Context(), key)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestPutOverwritesExistingBlob(t *testing.T) {
	store, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	key := "books/abc/cover.png"
	require.NoError(t, store.Put(t.Context(), key, []byte("first")))
	require.NoError(t, store.Put(t.Context(), key, []byte("second")))

	got, err := store.Get(t.Context(), key)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), got)
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	store, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(t.Context(), "books/missing/cover.png")
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestListReturnsSortedKeysUnderPrefix(t *testing.T) {
	store, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	keys := []string{
		"books/abc/scenes/page-02.png",
		"books/abc/scenes/page-01.png",
		"books/abc/cover.png",
		"books/xyz/cover.png",
	}
	for _, key := range keys {
		require.NoError(t, store.Put(t.Context(), key, []byte("x")))
	}

	got, err := store.List(t.Context(), "books/abc/scenes/")
	require.NoError(t, err)
	require.Equal(t, []string{
		"books/abc/scenes/page-01.png",
		"books/abc/scenes/page-02.png",
	}, got)
}

func TestListEmptyPrefixReturnsEverything(t *testing.T) {
	store, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(t.Context(), "a/one.bin", []byte("1")))
	require.NoError(t, store.Put(t.Context(), "b/two.bin", []byte("2")))

	got, err := store.List(t.Context(), "")
	require.NoError(t, err)
	require.Equal(t, []string{"a/one.bin", "b/two.bin"}, got)
}

func TestRejectsEscapingKeys(t *testing.T) {
	store, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../outside.txt", "/etc/passwd", "a/../../outside"} {
		require.Error(t, store.Put(t.Context(), key, []byte("x")), "key %q", key)
	}
}
