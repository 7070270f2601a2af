package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/yt-stream-go/internal/domain"
)

// SQLiteHistoryRepository implements HistoryRepository using SQLite. It
// stores attempt telemetry only, never media bytes.
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository creates a new SQLite history repository
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.DownloadRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// Create persists a new download record
func (r *SQLiteHistoryRepository) Create(record *domain.DownloadRecord) error {
	return r.db.Create(record).Error
}

// Update persists changes to an existing record
func (r *SQLiteHistoryRepository) Update(record *domain.DownloadRecord) error {
	return r.db.Save(record).Error
}

// FindRecent returns the most recent records, newest first
func (r *SQLiteHistoryRepository) FindRecent(limit int) ([]*domain.DownloadRecord, error) {
	var records []*domain.DownloadRecord
	err := r.db.Order("created_at DESC").Limit(limit).Find(&records).Error
	return records, err
}

// CountByStatus counts records with a given status
func (r *SQLiteHistoryRepository) CountByStatus(status domain.RecordStatus) (int64, error) {
	var count int64
	err := r.db.Model(&domain.DownloadRecord{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// Count counts all records
func (r *SQLiteHistoryRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&domain.DownloadRecord{}).Count(&count).Error
	return count, err
}

// Close closes the underlying database connection
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
