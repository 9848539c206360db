package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go4it/builder/internal/database"
	"github.com/go4it/builder/internal/testutil"
	"github.com/joho/godotenv"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var image string
	flag.StringVar(&image, "image", "", "postgres image (default postgres:16-alpine)")
	flag.Parse()

	usage := `
Run a migrated Postgres testcontainer for local builder development.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH] [-image IMAGE]

ENV_FILE_PATH: path to the .env file
IMAGE: postgres image to run, overridden by DB_IMAGE

example
  testcontainers -f /path/to/something/.env
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}
	if env := os.Getenv("DB_IMAGE"); env != "" {
		image = env
	}

	ctx := context.Background()
	if !testutil.DockerAvailable(ctx) {
		log.Fatalf("Docker is not available\n")
	}

	pg, err := testutil.StartPostgres(ctx, image)
	if err != nil {
		log.Fatalf("Failed to start postgres: %v\n", err)
	}

	cfg := pg.Config()
	db, err := database.Connect(cfg)
	if err != nil {
		pg.Terminate(ctx)
		log.Fatalf("Failed to connect: %v\n", err)
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		pg.Terminate(ctx)
		log.Fatalf("Failed to migrate: %v\n", err)
	}
	database.Close(db)

	fmt.Printf("DB_TYPE=%s\nDB_HOST=%s\nDB_PORT=%s\nDB_DATABASE=%s\nDB_USER=%s\nDB_PASSWORD=%s\n",
		cfg.DBType, cfg.DBHost, cfg.DBPort, cfg.DBDatabase, cfg.DBUser, cfg.DBPassword)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating postgres container...\n", sig)
	if err := pg.Terminate(ctx); err != nil {
		log.Printf("Failed to terminate container: %v\n", err)
	}
}
