package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/go4it/builder/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Postgres is a running Postgres container
type Postgres struct {
	Container testcontainers.Container
	Host      string
	Port      string
	User      string
	Password  string
	Database  string
}

// Config returns builder configuration pointing at the container
func (p *Postgres) Config() *config.Config {
	return &config.Config{
		DBType:            "postgres",
		DBHost:            p.Host,
		DBPort:            p.Port,
		DBDatabase:        p.Database,
		DBUser:            p.User,
		DBPassword:        p.Password,
		DBConnectionLimit: 5,
	}
}

// Terminate stops and removes the container
func (p *Postgres) Terminate(ctx context.Context) error {
	if p == nil || p.Container == nil {
		return nil
	}
	return p.Container.Terminate(ctx)
}

// DockerAvailable reports whether a Docker daemon answers
func DockerAvailable(ctx context.Context) bool {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = cli.Ping(ctx)
	return err == nil
}

// StartPostgres runs image (postgres:16-alpine when empty) and waits until it accepts connections
func StartPostgres(ctx context.Context, image string) (*Postgres, error) {
	if image == "" {
		image = "postgres:16-alpine"
	}
	pg := &Postgres{User: "builder", Password: "builder", Database: "builder"}

	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		return nil, err
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"POSTGRES_USER":     pg.User,
				"POSTGRES_PASSWORD": pg.Password,
				"POSTGRES_DB":       pg.Database,
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort(port),
			).WithDeadline(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres: %w", err)
	}
	pg.Container = container

	host, err := container.Host(ctx)
	if err != nil {
		pg.Terminate(ctx)
		return nil, err
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		pg.Terminate(ctx)
		return nil, err
	}
	pg.Host = host
	pg.Port = mapped.Port()

	return pg, nil
}
