package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbase/yelpdb/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDatabase_SectionPresent(t *testing.T) {
	path := writeConfig(t, `
database:
  database_file_path: ./yelp.db
  raw_data_folder_path: ./raw_data
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	db, err := cfg.Database()
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Equal(t, "./yelp.db", db.DatabaseFilePath)
	assert.Equal(t, "./raw_data", db.RawDataFolderPath)
}

func TestDatabase_SectionMissingIsNotFatal(t *testing.T) {
	path := writeConfig(t, `
other:
  key: value
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	db, err := cfg.Database()
	require.NoError(t, err)
	assert.Nil(t, db, "missing section yields nil, not an error")
}

func TestDatabase_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  database_file_path: ./yelp.db
  raw_data_folder_path: ./raw_data
`)
	t.Setenv("YELPDB_DATABASE_PATH", "/tmp/other.db")
	t.Setenv("YELPDB_DATA_DIR", "/data/yelp")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	db, err := cfg.Database()
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Equal(t, "/tmp/other.db", db.DatabaseFilePath)
	assert.Equal(t, "/data/yelp", db.RawDataFolderPath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSection_DecodesArbitrarySections(t *testing.T) {
	path := writeConfig(t, `
report:
  top_n: 25
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	var report struct {
		TopN int `yaml:"top_n"`
	}
	ok, err := cfg.Section("report", &report)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 25, report.TopN)
}
