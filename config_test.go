package hosal

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	dir, err := ioutil.TempDir("", "hosal")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "hosal.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{"lockPolicy": "nonblocking"}`))
	require.NoError(t, err)
	assert.Equal(t, NonBlocking, cfg.LockPolicy)
	assert.Equal(t, DefaultConfig().KeyCacheSize, cfg.KeyCacheSize)

	cfg, err = LoadConfig(writeConfig(t, `{"keyCacheSize": 0}`))
	require.NoError(t, err)
	assert.Equal(t, Blocking, cfg.LockPolicy)
	assert.Equal(t, 0, cfg.KeyCacheSize)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `{"lockPolicy": "whenever"}`))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, `{"keyCacheSize": -1}`))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(os.TempDir(), "does-not-exist", "hosal.json"))
	assert.Error(t, err)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(Config{LockPolicy: LockPolicy(7)})
	assert.Error(t, err)
}

func TestDefaultConfigKeepsNoKeySchedules(t *testing.T) {
	assert.Equal(t, 0, DefaultConfig().KeyCacheSize)

	d, err := Open(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, d.Operation(context.Background(), &Request{
		Operation: Encrypt, KeyBits: Key128, Key: ctr128Key,
		In: make([]byte, 16), Out: make([]byte, 16), Length: 16,
	}))
	assert.Equal(t, 0, d.keys.Cached())
}
