package database

import (
	"database/sql"
	"log"
	"strings"
	"time"

	"github.com/fredserel/Sistema-kanban/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite" // pure Go sqlite driver, no CGO
)

var DB *gorm.DB

// Init connects to the database, runs migrations and seeds the permission
// catalog, system roles and the default admin account.
func Init(dsn, adminEmail, adminPassword string) {
	var err error

	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		log.Printf("trying to connect to DB (attempt %d/%d)...", i, maxAttempts)

		DB, err = open(dsn)
		if err == nil {
			log.Println("connected to DB successfully")
			break
		}

		log.Printf("failed to connect to DB: %v", err)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Fatalf("failed to connect to db after %d attempts: %v", maxAttempts, err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	if err := Seed(DB, adminEmail, adminPassword); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}
}

// open dials postgres when the DSN looks like one, otherwise treats the DSN
// as a sqlite path backed by the pure-Go driver.
func open(dsn string) (*gorm.DB, error) {
	if strings.Contains(dsn, "host=") || strings.HasPrefix(dsn, "postgres://") {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	sqlDB, err := sql.Open("sqlite", dsn+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// Migrate creates the schema. Exported so tests can run it against their own
// temp database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.AuthToken{},
		&models.Role{},
		&models.Permission{},
		&models.Project{},
		&models.ProjectStage{},
		&models.ProjectMember{},
		&models.Comment{},
		&models.AuditLog{},
		&models.Setting{},
	)
}
