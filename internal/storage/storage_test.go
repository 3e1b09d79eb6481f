package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brocaar/chirpstack-device-classb/internal/config"
)

func TestFileStore(t *testing.T) {
	assert := require.New(t)

	path := filepath.Join(t.TempDir(), "ctx", "device.ctx")
	s := NewFileStore(path)

	_, err := s.Restore()
	assert.Equal(ErrNotFound, err)

	assert.NoError(s.Save([]byte{1, 2, 3}))
	b, err := s.Restore()
	assert.NoError(err)
	assert.Equal([]byte{1, 2, 3}, b)

	// save replaces the previous context
	assert.NoError(s.Save([]byte{4, 5}))
	b, err = s.Restore()
	assert.NoError(err)
	assert.Equal([]byte{4, 5}, b)

	assert.NoError(s.Close())
}

func TestSetup(t *testing.T) {
	assert := require.New(t)

	var c config.Config
	c.Storage.Backend = "file"
	c.Storage.File.Path = filepath.Join(t.TempDir(), "device.ctx")

	s, err := Setup(c)
	assert.NoError(err)
	assert.IsType(&FileStore{}, s)

	c.Storage.Backend = "does-not-exist"
	_, err = Setup(c)
	assert.Error(err)
}
