package database

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
)

// Store provides search-history persistence and aggregate statistics
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// RecordAttempt saves one attempt outcome. For successful attempts the
// case record is serialized into the case_data column.
func (s *Store) RecordAttempt(attempt *SearchAttempt, record *CaseRecord) error {
	if record != nil {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to serialize case record: %w", err)
		}
		attempt.CaseData = string(data)
	}
	if attempt.QueryTime.IsZero() {
		attempt.QueryTime = time.Now()
	}
	if err := s.db.Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to save search attempt: %w", err)
	}
	return nil
}

// RecentAttempts returns the most recent successful attempts, newest first
func (s *Store) RecentAttempts(limit int) ([]SearchAttempt, error) {
	var attempts []SearchAttempt
	err := s.db.Where("success = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

// AllAttempts returns the full history, newest first
func (s *Store) AllAttempts(offset, limit int) ([]SearchAttempt, int64, error) {
	var total int64
	if err := s.db.Model(&SearchAttempt{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attempts []SearchAttempt
	q := s.db.Order("created_at DESC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&attempts).Error
	return attempts, total, err
}

// AttemptByID loads a single attempt
func (s *Store) AttemptByID(id uint) (*SearchAttempt, error) {
	var attempt SearchAttempt
	if err := s.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// Statistics computes search totals and the success rate as a
// percentage rounded to one decimal place
func (s *Store) Statistics() (*Statistics, error) {
	stats := &Statistics{}

	if err := s.db.Model(&SearchAttempt{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&SearchAttempt{}).
		Where("success = ?", true).
		Count(&stats.Succeeded).Error; err != nil {
		return nil, err
	}
	stats.Failed = stats.Total - stats.Succeeded

	if stats.Total > 0 {
		rate := float64(stats.Succeeded) / float64(stats.Total) * 100
		stats.SuccessRate = math.Round(rate*10) / 10
	}
	return stats, nil
}
