/*
Package config loads the pipeline's YAML configuration.

A config.yaml looks like:

	database:
	  database_file_path: ./yelp.db
	  raw_data_folder_path: ./raw_data

Sections are loaded by name; asking for a section the file does not
contain logs a warning and returns nil rather than failing, so callers
can probe for optional sections. Two environment variables override the
database section after it is decoded:

	YELPDB_DATABASE_PATH  overrides database_file_path
	YELPDB_DATA_DIR       overrides raw_data_folder_path
*/
package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Database is the "database" section of config.yaml.
type Database struct {
	DatabaseFilePath  string `yaml:"database_file_path"`
	RawDataFolderPath string `yaml:"raw_data_folder_path"`
}

// Config is a parsed configuration file.
type Config struct {
	path     string
	sections map[string]yaml.Node
}

// Load reads and parses the YAML file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	sections := map[string]yaml.Node{}
	if err := yaml.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &Config{path: path, sections: sections}, nil
}

// Section decodes the named top-level section into out. A missing
// section is not an error: it logs a warning and returns false.
func (c *Config) Section(name string, out any) (bool, error) {
	node, ok := c.sections[name]
	if !ok {
		log.Printf("%s not found in config %s", name, c.path)
		return false, nil
	}
	if err := node.Decode(out); err != nil {
		return false, fmt.Errorf("decode %s section of %s: %w", name, c.path, err)
	}
	return true, nil
}

// Database returns the database section with environment overrides
// applied, or nil if the file has no database section.
func (c *Config) Database() (*Database, error) {
	var db Database
	ok, err := c.Section("database", &db)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if v := os.Getenv("YELPDB_DATABASE_PATH"); v != "" {
		db.DatabaseFilePath = v
	}
	if v := os.Getenv("YELPDB_DATA_DIR"); v != "" {
		db.RawDataFolderPath = v
	}
	return &db, nil
}
