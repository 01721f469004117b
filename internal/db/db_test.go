package db

import (
	"errors"
	"strings"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/models"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "no password",
			cfg:  config.DatabaseConfig{User: "root", Host: "127.0.0.1", Port: 3306, Database: "taskflow"},
			want: "root@tcp(127.0.0.1:3306)/taskflow?parseTime=true",
		},
		{
			name: "with password",
			cfg:  config.DatabaseConfig{User: "tf", Password: "s3cret", Host: "db.internal", Port: 3307, Database: "taskflow_prod"},
			want: "tf:s3cret@tcp(db.internal:3307)/taskflow_prod?parseTime=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.cfg)
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnect_Sqlite(t *testing.T) {
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// Round-trip a row through every table to prove the schema works.
	tr := models.Transcript{ID: "t-1", Filename: "kickoff.txt", Content: "hello", ContentHash: "abc"}
	if err := db.Create(&tr).Error; err != nil {
		t.Fatalf("create transcript: %v", err)
	}
	var back models.Transcript
	if err := db.First(&back, "id = ?", "t-1").Error; err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if back.Status != models.TranscriptUploaded {
		t.Errorf("Status = %q, want default %q", back.Status, models.TranscriptUploaded)
	}
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "postgres"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "unknown driver") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "unknown driver")
	}
}

func TestAllModels_Count(t *testing.T) {
	if got := len(AllModels()); got != 5 {
		t.Errorf("AllModels() returned %d models, want 5", got)
	}
}

func TestIsDuplicateEntry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"mysql 1062", &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true},
		{"mysql other", &gomysql.MySQLError{Number: 1054, Message: "Unknown column"}, false},
		{"sqlite unique", errors.New("UNIQUE constraint failed: jobs.idempotency_key"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateEntry(tt.err); got != tt.want {
				t.Errorf("IsDuplicateEntry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDuplicateEntry_RealConstraint(t *testing.T) {
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	j1 := models.Job{ID: "j-1", TranscriptID: "t-1", IdempotencyKey: "key-1"}
	if err := db.Create(&j1).Error; err != nil {
		t.Fatalf("create first job: %v", err)
	}
	j2 := models.Job{ID: "j-2", TranscriptID: "t-1", IdempotencyKey: "key-1"}
	err = db.Create(&j2).Error
	if err == nil {
		t.Fatal("expected unique constraint violation")
	}
	if !IsDuplicateEntry(err) {
		t.Errorf("IsDuplicateEntry(%v) = false, want true", err)
	}
}

func TestReset(t *testing.T) {
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	if err := db.Create(&models.Transcript{ID: "t-1", Filename: "a", Content: "x", ContentHash: "h"}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := Reset(db); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	var count int64
	if err := db.Model(&models.Transcript{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count after reset = %d, want 0", count)
	}
}
