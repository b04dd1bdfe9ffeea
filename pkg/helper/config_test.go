package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPath(t *testing.T) {
	_, err := ConfigPath("")
	assert.Error(t, err)

	got, err := ConfigPath("/srv/casamento/apiserver.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/srv/casamento/apiserver.yaml", got)

	tmp := t.TempDir()
	t.Chdir(tmp)
	wd, err := os.Getwd()
	require.NoError(t, err)

	// nothing on disk
	got, err = ConfigPath("apiserver.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(SystemConfigDir, "apiserver.yaml"), got)

	require.NoError(t, os.MkdirAll("configs", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("configs", "apiserver.yaml"), []byte("x"), 0o644))
	got, err = ConfigPath("apiserver.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "configs", "apiserver.yaml"), got)

	// the working directory wins over configs/
	require.NoError(t, os.WriteFile("apiserver.yaml", []byte("x"), 0o644))
	got, err = ConfigPath("apiserver.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "apiserver.yaml"), got)

	// a directory is not a config file
	require.NoError(t, os.MkdirAll("conf.d", 0o755))
	got, err = ConfigPath("conf.d")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(SystemConfigDir, "conf.d"), got)
}
