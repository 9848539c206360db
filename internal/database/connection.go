// connection.go
//
// GO4IT builder: background generation, preview and deployment service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of go4it-builder.
// go4it-builder is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// go4it-builder is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with go4it-builder.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package database

import (
	"fmt"
	"log"
	"net"

	pure "github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/go4it/builder/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector builds the GORM dialector for the configured DB_TYPE
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBType {
	case "mysql", "mariadb":
		port := cfg.DBPort
		if port == "" {
			port = "3306"
		}
		mysqlCfg := gomysql.NewConfig()
		mysqlCfg.User = cfg.DBUser
		mysqlCfg.Passwd = cfg.DBPassword
		mysqlCfg.Net = "tcp"
		mysqlCfg.Addr = net.JoinHostPort(cfg.DBHost, port)
		mysqlCfg.DBName = cfg.DBDatabase
		mysqlCfg.ParseTime = true
		mysqlCfg.Params = map[string]string{"charset": "utf8mb4"}
		return mysql.Open(mysqlCfg.FormatDSN()), nil

	case "postgres", "postgresql":
		port := cfg.DBPort
		if port == "" {
			port = "5432"
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBDatabase,
			port,
		)
		return postgres.Open(dsn), nil

	case "sqlite":
		// For SQLite, DBDatabase is the file path
		return sqlite.Open(cfg.DBDatabase), nil

	case "sqlite-pure":
		// Same file format without cgo, for minimal container images
		return pure.Open(cfg.DBDatabase), nil

	case "sqlserver", "mssql":
		port := cfg.DBPort
		if port == "" {
			port = "1433"
		}
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			port,
			cfg.DBDatabase,
		)
		return sqlserver.Open(dsn), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
}

// Connect establishes a database connection based on the configured DB_TYPE
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}

	limit := cfg.DBConnectionLimit
	if isSQLite(cfg.DBType) {
		// Background jobs write concurrently; a single writer avoids SQLITE_BUSY
		limit = 1
	}
	sqlDB.SetMaxOpenConns(limit)
	sqlDB.SetMaxIdleConns(max(limit/2, 1))

	log.Printf("Connected to %s database: %s", cfg.DBType, cfg.DBDatabase)

	return db, nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isSQLite(dbType string) bool {
	return dbType == "sqlite" || dbType == "sqlite-pure"
}
