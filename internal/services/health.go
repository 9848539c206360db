package services

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"

	"github.com/go4it/builder/internal/config"
	"github.com/go4it/builder/internal/utils"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a deep health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Generator    string            `json:"generator"`
	Fly          string            `json:"fly"`
	Workspace    string            `json:"workspace"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(component, detailKey string, err error) {
	r.Status = "unhealthy"
	r.Details[detailKey] = err.Error()
	msg := fmt.Sprintf("%s check failed: %v", component, err)
	if r.ErrorMessage == "" {
		r.ErrorMessage = msg
	} else {
		r.ErrorMessage += "; " + msg
	}
	log.Printf("Health check failed - %s: %v", component, err)
}

// HealthCheck verifies the database and every external tool the pipeline shells out to
func HealthCheck(cfg *config.Config, db *gorm.DB) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Fly:     "disabled",
		Details: make(map[string]string),
	}

	// Database
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		result.Database = "unreachable"
		result.fail("database", "database_error", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
	}

	// Generation CLI
	if path, err := exec.LookPath(cfg.GeneratorCommand); err != nil {
		result.Generator = "missing"
		result.fail("generator", "generator_error", err)
	} else {
		result.Generator = "ok"
		result.Details["generator_path"] = path
	}

	// Fly CLI
	if cfg.FlyEnabled {
		if path, err := exec.LookPath(cfg.FlyCommand); err != nil {
			result.Fly = "missing"
			result.fail("fly", "fly_error", err)
		} else {
			result.Fly = "ok"
			result.Details["fly_path"] = path
		}
	}

	// Workspace root must be writable
	if err := checkWritable(cfg.WorkspaceRoot); err != nil {
		result.Workspace = "unwritable"
		result.fail("workspace", "workspace_error", err)
	} else {
		result.Workspace = "ok"
	}

	if cfg.RedisAddr != "" {
		if err := utils.PingService("redis://"+cfg.RedisAddr, 1500*time.Millisecond); err != nil {
			result.fail("redis", "redis_error", err)
		}
	}

	if cfg.AuthzURL != "" {
		if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
			result.fail("authorizer", "authorizer_error", err)
		}
	}

	if result.Status == "healthy" {
		log.Println("Health check passed - all systems operational")
	}

	return result
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".healthcheck-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
