package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sam-maryland/sleeper-playoff-odds/internal/league"
	"github.com/sam-maryland/sleeper-playoff-odds/internal/simulation"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned when no stored snapshot or result matches.
var ErrNotFound = errors.New("not found")

// SnapshotKey identifies one stored snapshot of a league. Version 0 on save
// means "next version for this league, season and week".
type SnapshotKey struct {
	LeagueID string `json:"league_id"`
	Season   string `json:"season"`
	Week     int    `json:"week"`
	Version  int    `json:"version"`
}

func (k SnapshotKey) String() string {
	return fmt.Sprintf("%s/%s/week-%d/v%d", k.LeagueID, k.Season, k.Week, k.Version)
}

// SnapshotRecord is the persisted form of a league snapshot.
type SnapshotRecord struct {
	ID        uint             `gorm:"primaryKey"`
	LeagueID  string           `gorm:"uniqueIndex:idx_snapshot_key;not null"`
	Season    string           `gorm:"uniqueIndex:idx_snapshot_key"`
	Week      int              `gorm:"uniqueIndex:idx_snapshot_key"`
	Version   int              `gorm:"uniqueIndex:idx_snapshot_key"`
	Snapshot  *league.Snapshot `gorm:"serializer:json"`
	CreatedAt time.Time
}

// ResultRecord is the persisted form of one simulation batch.
type ResultRecord struct {
	ID        uint                `gorm:"primaryKey"`
	RunID     string              `gorm:"uniqueIndex;not null"`
	LeagueID  string              `gorm:"index;not null"`
	Season    string
	Week      int
	Version   int
	Results   *simulation.Results `gorm:"serializer:json"`
	CreatedAt time.Time           `gorm:"index"`
}

// Key returns the snapshot key the result was computed from.
func (r *ResultRecord) Key() SnapshotKey {
	return SnapshotKey{LeagueID: r.LeagueID, Season: r.Season, Week: r.Week, Version: r.Version}
}

// SQLStore keeps snapshots and results in a sqlite database.
type SQLStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// the schema. ":memory:" gives a throwaway database.
func OpenSQLite(path string, logger *logrus.Logger) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// sqlite allows one writer, and each ":memory:" connection is its own
	// database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1)

	return NewSQLStore(db, logger)
}

// NewSQLStore wraps an open gorm connection and migrates the schema.
func NewSQLStore(db *gorm.DB, logger *logrus.Logger) (*SQLStore, error) {
	if err := db.AutoMigrate(&SnapshotRecord{}, &ResultRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLStore{db: db, logger: logger}, nil
}

// Close releases the underlying connection.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSnapshot stores the snapshot under key and returns the key actually
// used, with the version filled in.
func (s *SQLStore) SaveSnapshot(ctx context.Context, key SnapshotKey, snapshot *league.Snapshot) (SnapshotKey, error) {
	if key.LeagueID == "" {
		return key, fmt.Errorf("snapshot key requires a league id")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if key.Version == 0 {
			var latest int
			err := tx.Model(&SnapshotRecord{}).
				Where("league_id = ? AND season = ? AND week = ?", key.LeagueID, key.Season, key.Week).
				Select("COALESCE(MAX(version), 0)").
				Scan(&latest).Error
			if err != nil {
				return err
			}
			key.Version = latest + 1
		}

		record := SnapshotRecord{
			LeagueID: key.LeagueID,
			Season:   key.Season,
			Week:     key.Week,
			Version:  key.Version,
			Snapshot: snapshot,
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return key, fmt.Errorf("failed to save snapshot %s: %w", key, err)
	}

	s.logger.WithFields(logrus.Fields{
		"league_id": key.LeagueID,
		"season":    key.Season,
		"week":      key.Week,
		"version":   key.Version,
	}).Debug("Saved league snapshot")
	return key, nil
}

// LoadSnapshot returns the snapshot stored under key. Version 0 selects the
// latest version.
func (s *SQLStore) LoadSnapshot(ctx context.Context, key SnapshotKey) (*league.Snapshot, error) {
	query := s.db.WithContext(ctx).
		Where("league_id = ? AND season = ? AND week = ?", key.LeagueID, key.Season, key.Week)
	if key.Version != 0 {
		query = query.Where("version = ?", key.Version)
	}

	var record SnapshotRecord
	if err := query.Order("version DESC").First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("snapshot %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}
	if record.Snapshot == nil {
		return nil, fmt.Errorf("snapshot %s is empty", key)
	}
	record.Snapshot.FillRecords()
	return record.Snapshot, nil
}

// SaveResults stores a finished batch computed from the snapshot under key.
func (s *SQLStore) SaveResults(ctx context.Context, key SnapshotKey, results *simulation.Results) error {
	if results == nil {
		return fmt.Errorf("no results to save")
	}
	record := ResultRecord{
		RunID:    results.RunID,
		LeagueID: key.LeagueID,
		Season:   key.Season,
		Week:     key.Week,
		Version:  key.Version,
		Results:  results,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save results %s: %w", results.RunID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"league_id": key.LeagueID,
		"run_id":    results.RunID,
	}).Debug("Saved simulation results")
	return nil
}

// LatestResults returns the most recently saved batch for a league.
func (s *SQLStore) LatestResults(ctx context.Context, leagueID string) (*ResultRecord, error) {
	var record ResultRecord
	err := s.db.WithContext(ctx).
		Where("league_id = ?", leagueID).
		Order("created_at DESC").
		Order("id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("results for league %s: %w", leagueID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load results for league %s: %w", leagueID, err)
	}
	return &record, nil
}
