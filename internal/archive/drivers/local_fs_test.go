package drivers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenNSW/customs/internal/sentinel"
)

func TestLocalFSDriver_DirectoryHashing(t *testing.T) {
	driver, err := NewLocalFSDriver(t.TempDir(), "/archive/")
	require.NoError(t, err)

	ctx := context.Background()
	key := "abcdef123456.json"
	content := []byte(`{"state":"APPROVED"}`)

	require.NoError(t, driver.Save(ctx, key, bytes.NewReader(content), "application/json"))

	// "abcdef123456.json" lives at ab/cd/abcdef123456.json
	_, err = os.Stat(filepath.Join(driver.BaseDir, "ab", "cd", key))
	assert.NoError(t, err)

	reader, contentType, err := driver.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, "application/json", contentType)
	got, _ := io.ReadAll(reader)
	assert.Equal(t, content, got)

	url, err := driver.GenerateURL(ctx, key, 0)
	require.NoError(t, err)
	assert.Equal(t, "/archive/"+key, url)
}

func TestLocalFSDriver_Overwrite(t *testing.T) {
	driver, err := NewLocalFSDriver(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, driver.Save(ctx, "abcd1.json", bytes.NewReader([]byte("one")), "text/plain"))
	require.NoError(t, driver.Save(ctx, "abcd1.json", bytes.NewReader([]byte("two")), "text/plain"))

	reader, _, err := driver.Get(ctx, "abcd1.json")
	require.NoError(t, err)
	defer reader.Close()
	got, _ := io.ReadAll(reader)
	assert.Equal(t, "two", string(got))

	url, _ := driver.GenerateURL(ctx, "abcd1.json", 0)
	assert.Equal(t, "abcd1.json", url)
}

func TestLocalFSDriver_Missing(t *testing.T) {
	driver, err := NewLocalFSDriver(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = driver.Get(ctx, "nothing-here.json")
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	assert.NoError(t, driver.Delete(ctx, "nothing-here.json"))
}

func TestLocalFSDriver_Delete(t *testing.T) {
	driver, err := NewLocalFSDriver(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, driver.Save(ctx, "abcd2.json", bytes.NewReader([]byte("x")), "text/plain"))
	require.NoError(t, driver.Delete(ctx, "abcd2.json"))
	_, _, err = driver.Get(ctx, "abcd2.json")
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestLocalFSDriver_RejectsTraversal(t *testing.T) {
	driver, err := NewLocalFSDriver(t.TempDir(), "")
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "a/b.json", `a\b.json`} {
		err := driver.Save(context.Background(), key, bytes.NewReader(nil), "text/plain")
		assert.True(t, errors.Is(err, sentinel.ErrInvalidField), key)
	}
}
