package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/JustJay7/court-case-engine/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultHistoryLimit applies when ListRecentLogs is called without a limit.
const DefaultHistoryLimit = 50

const maxPageSize = 100

var (
	ErrNotFound     = errors.New("record not found")
	ErrLogCompleted = errors.New("query log entry already completed")
)

// Store is the gorm-backed record store. It keeps the latest record per key
// and the query history.
type Store struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewStore(db *gorm.DB, logger *logger.Logger) *Store {
	return &Store{db: db, logger: logger.With("component", "store")}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func whereKey(db *gorm.DB, key model.QueryKey) *gorm.DB {
	return db.Where("case_type = ? AND case_number = ? AND filing_year = ?", key.CaseType, key.CaseNumber, key.FilingYear)
}

// Put stores record as the latest for key, replacing any earlier one.
func (s *Store) Put(ctx context.Context, key model.QueryKey, record *model.CaseRecord) error {
	if record == nil {
		return errors.New("cannot store nil record")
	}
	info := newCaseInfo(key, record)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing CaseInfo
		err := whereKey(tx.Unscoped(), key).Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(info).Error
		}
		if err != nil {
			return err
		}

		if err := tx.Unscoped().Where("case_info_id = ?", existing.ID).Delete(&Party{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("case_info_id = ?", existing.ID).Delete(&Order{}).Error; err != nil {
			return err
		}

		info.ID = existing.ID
		info.CreatedAt = existing.CreatedAt
		return tx.Unscoped().Save(info).Error
	})
	if err != nil {
		return fmt.Errorf("failed to store case %s: %w", key, err)
	}
	return nil
}

// GetLatest returns the stored record for key or ErrNotFound.
func (s *Store) GetLatest(ctx context.Context, key model.QueryKey) (*model.CaseRecord, error) {
	var info CaseInfo
	err := whereKey(s.db.WithContext(ctx), key).
		Preload("Parties", byPosition).
		Preload("Orders", byPosition).
		Take(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", key, err)
	}
	return info.Record(), nil
}

// AppendLog inserts a query log entry and returns its id. A missing status
// means INITIATED and a zero timestamp means now.
func (s *Store) AppendLog(ctx context.Context, entry *model.QueryLogEntry) (uint, error) {
	row := &QueryLog{
		CaseType:     entry.Key.CaseType,
		CaseNumber:   entry.Key.CaseNumber,
		FilingYear:   entry.Key.FilingYear,
		Status:       string(entry.Status),
		ErrorDetail:  entry.ErrorDetail,
		ErrorMessage: entry.ErrorMessage,
		QueryTime:    entry.Timestamp,
	}
	if row.Status == "" {
		row.Status = string(model.QueryInitiated)
	}
	if row.QueryTime.IsZero() {
		row.QueryTime = time.Now()
	}
	if entry.ResultingRecord != nil {
		data, err := json.Marshal(entry.ResultingRecord)
		if err != nil {
			return 0, fmt.Errorf("failed to encode record: %w", err)
		}
		row.ResultingRecord = datatypes.JSON(data)
		row.Provenance = string(entry.ResultingRecord.Provenance)
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return 0, fmt.Errorf("failed to create query log: %w", err)
	}
	entry.ID = row.ID
	return row.ID, nil
}

// UpdateLog completes an INITIATED entry. An entry is completed at most once.
func (s *Store) UpdateLog(ctx context.Context, id uint, update model.LogUpdate) error {
	if !update.Status.Valid() || update.Status == model.QueryInitiated {
		return fmt.Errorf("invalid completion status %q", update.Status)
	}

	fields := map[string]interface{}{
		"status":        string(update.Status),
		"error_detail":  update.ErrorDetail,
		"error_message": update.ErrorMessage,
	}
	if update.Record != nil {
		data, err := json.Marshal(update.Record)
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		fields["resulting_record"] = datatypes.JSON(data)
		fields["provenance"] = string(update.Record.Provenance)
	}

	db := s.db.WithContext(ctx)
	res := db.Model(&QueryLog{}).
		Where("id = ? AND status = ?", id, string(model.QueryInitiated)).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update query log %d: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&QueryLog{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check query log %d: %w", id, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrLogCompleted
}

// ListRecentLogs returns up to limit entries, newest first, optionally
// restricted to one status.
func (s *Store) ListRecentLogs(ctx context.Context, limit int, status model.QueryStatus) ([]model.QueryLogEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	q := s.db.WithContext(ctx).Order("query_time DESC").Order("id DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}

	var rows []QueryLog
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list query logs: %w", err)
	}

	entries := make([]model.QueryLogEntry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].entry()
		if err != nil {
			s.logger.Warn("History entry has an undecodable record", "query_id", rows[i].ID, "error", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ListCases pages through stored records, most recently updated first.
func (s *Store) ListCases(ctx context.Context, page, limit int) ([]model.StoredCase, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&CaseInfo{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count cases: %w", err)
	}

	var infos []CaseInfo
	err := db.Preload("Parties", byPosition).
		Preload("Orders", byPosition).
		Order("updated_at DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&infos).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cases: %w", err)
	}

	cases := make([]model.StoredCase, 0, len(infos))
	for i := range infos {
		cases = append(cases, model.StoredCase{
			Key:       infos[i].key(),
			Record:    infos[i].Record(),
			UpdatedAt: infos[i].UpdatedAt,
		})
	}
	return cases, total, nil
}

// PurgeResult counts what Purge removed.
type PurgeResult struct {
	QueryLogs int64 `json:"query_logs"`
	Cases     int64 `json:"cases"`
}

// Purge hard-deletes the whole history and every stored record.
func (s *Store) Purge(ctx context.Context) (PurgeResult, error) {
	var result PurgeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Unscoped().Session(&gorm.Session{AllowGlobalUpdate: true})

		if err := all.Delete(&Party{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&Order{}).Error; err != nil {
			return err
		}
		res := all.Delete(&CaseInfo{})
		if res.Error != nil {
			return res.Error
		}
		result.Cases = res.RowsAffected

		res = all.Delete(&QueryLog{})
		if res.Error != nil {
			return res.Error
		}
		result.QueryLogs = res.RowsAffected
		return nil
	})
	if err != nil {
		return PurgeResult{}, fmt.Errorf("failed to purge history: %w", err)
	}

	s.logger.Info("Purged history", "query_logs", result.QueryLogs, "cases", result.Cases)
	return result, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
