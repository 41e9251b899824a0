/*
main.go - CLI entry point

PURPOSE:
  Builds a normalized SQLite database from a folder of Yelp dataset
  JSON files, one shot per dataset snapshot.

COMMAND-LINE FLAGS:
  -config     Path to config.yaml (default: config.yaml)
  -no-photos  Skip loading photo.json even when present
  -verbose    Print progress while loading

CONFIGURATION:
  config.yaml needs a database section:

    database:
      database_file_path: ./yelp.db
      raw_data_folder_path: ./raw_data

  A .env file is loaded first (if present), and the environment
  variables YELPDB_DATABASE_PATH / YELPDB_DATA_DIR override the
  corresponding config entries.

EXIT BEHAVIOR:
  Non-zero on any failure, including a data folder missing the
  mandatory business, user or review files. A failure mid-file leaves
  the database at the last committed file boundary.

SEE ALSO:
  - loader/loader.go: sequencing and preconditions
  - store/sqlite/sqlite.go: destination schema
*/
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/reviewbase/yelpdb/config"
	"github.com/reviewbase/yelpdb/loader"
	"github.com/reviewbase/yelpdb/store/sqlite"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	noPhotos := flag.Bool("no-photos", false, "don't load photo.json")
	verbose := flag.Bool("verbose", false, "show progress while loading")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db, err := cfg.Database()
	if err != nil {
		log.Fatalf("Failed to read database config: %v", err)
	}
	if db == nil {
		log.Fatalf("Config %s has no database section", *configPath)
	}

	store, err := sqlite.New(db.DatabaseFilePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	err = loader.Run(context.Background(), store, loader.Options{
		DataDir:       db.RawDataFolderPath,
		IncludePhotos: !*noPhotos,
		Verbose:       *verbose,
	})
	if err != nil {
		log.Fatalf("Load failed: %v", err)
	}

	if *verbose {
		log.Printf("Done: %s", db.DatabaseFilePath)
	}
}
