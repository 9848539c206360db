package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go4it/builder/internal/config"
	"github.com/go4it/builder/internal/database"
)

// Prints the SQLite DDL produced by the migrations
func main() {
	dir, err := os.MkdirTemp("", "builder-schema-")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	db, err := database.Connect(&config.Config{
		DBType:     "sqlite-pure",
		DBDatabase: filepath.Join(dir, "schema.db"),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	var tables []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' ORDER BY name").Scan(&tables)

	for _, table := range tables {
		fmt.Printf("\n=== Table: %s ===\n", table)
		var schema string
		db.Raw("SELECT sql FROM sqlite_master WHERE name = ?", table).Scan(&schema)
		fmt.Println(schema)
	}
}
