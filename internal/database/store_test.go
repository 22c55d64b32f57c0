package database

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/JustJay7/court-case-engine/internal/model"
	"github.com/JustJay7/court-case-engine/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = model.QueryKey{CaseType: "W.P.(C)", CaseNumber: "1234", FilingYear: "2023"}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Initialize(memoryPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		if c, err := Closer(db); err == nil {
			_ = c.Close()
		}
	})
	return NewStore(db, logger.NewNop())
}

func sampleRecord(status string) *model.CaseRecord {
	return &model.CaseRecord{
		Parties: []model.Party{
			{Role: model.RolePetitionerAppellant, Name: "Ramesh Chand"},
			{Role: model.RoleRespondent, Name: "Union of India"},
			{Role: model.RoleRespondent, Name: "Union of India"},
		},
		FilingDate:      "15/03/2023",
		NextHearingDate: "20/02/2024",
		Orders: []model.Order{
			{Date: "01/02/2023", Description: "Order dated 01/02/2023", DocumentRef: "https://delhihighcourt.nic.in/orders/1.pdf"},
			{Date: "", Description: "Court Order", DocumentRef: "https://delhihighcourt.nic.in/orders/2.pdf"},
		},
		CaseStatus: status,
		Provenance: model.ProvenanceLive,
	}
}

func TestPutAndGetLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetLatest(ctx, testKey)
	assert.ErrorIs(t, err, ErrNotFound)

	first := sampleRecord("Pending")
	require.NoError(t, s.Put(ctx, testKey, first))

	got, err := s.GetLatest(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := &model.CaseRecord{
		Parties:    []model.Party{{Role: model.RoleAppellant, Name: "Amit Singh"}},
		FilingDate: "02/02/2023",
		CaseStatus: "Listed for Hearing",
		Provenance: model.ProvenanceSynthetic,
	}
	require.NoError(t, s.Put(ctx, testKey, second))

	got, err = s.GetLatest(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	var parties, orders, cases int64
	s.db.Model(&Party{}).Count(&parties)
	s.db.Model(&Order{}).Count(&orders)
	s.db.Model(&CaseInfo{}).Count(&cases)
	assert.Equal(t, int64(1), parties)
	assert.Zero(t, orders)
	assert.Equal(t, int64(1), cases)

	assert.Error(t, s.Put(ctx, testKey, nil))
}

func TestPutConcurrentSameKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Put(ctx, testKey, sampleRecord(fmt.Sprintf("status-%d", i)))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	var cases int64
	s.db.Model(&CaseInfo{}).Count(&cases)
	assert.Equal(t, int64(1), cases)

	got, err := s.GetLatest(ctx, testKey)
	require.NoError(t, err)
	assert.Len(t, got.Parties, 3)
	assert.Len(t, got.Orders, 2)
}

func TestQueryLogLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := &model.QueryLogEntry{Key: testKey}
	id, err := s.AppendLog(ctx, entry)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, id, entry.ID)

	logs, err := s.ListRecentLogs(ctx, 10, model.QueryInitiated)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, testKey, logs[0].Key)
	assert.Nil(t, logs[0].ResultingRecord)
	assert.False(t, logs[0].Timestamp.IsZero())

	record := sampleRecord("Pending")
	record.Provenance = model.ProvenanceSynthetic
	require.NoError(t, s.UpdateLog(ctx, id, model.LogUpdate{
		Status:       model.QuerySucceeded,
		ErrorDetail:  "NoRecordFound",
		ErrorMessage: "NoRecordFound: no case found for W.P.(C) 1234/2023",
		Record:       record,
	}))

	logs, err = s.ListRecentLogs(ctx, 10, model.QuerySucceeded)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "NoRecordFound", logs[0].ErrorDetail)
	assert.Equal(t, record, logs[0].ResultingRecord)

	var row QueryLog
	require.NoError(t, s.db.First(&row, id).Error)
	assert.Equal(t, "synthetic", row.Provenance)

	err = s.UpdateLog(ctx, id, model.LogUpdate{Status: model.QueryFailed})
	assert.ErrorIs(t, err, ErrLogCompleted)

	err = s.UpdateLog(ctx, 9999, model.LogUpdate{Status: model.QuerySucceeded})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.UpdateLog(ctx, id, model.LogUpdate{Status: model.QueryInitiated}))
	assert.Error(t, s.UpdateLog(ctx, id, model.LogUpdate{Status: "DONE"}))
}

func TestListRecentLogsOrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 60; i++ {
		key := model.QueryKey{CaseType: "FAO", CaseNumber: fmt.Sprint(i), FilingYear: "2020"}
		_, err := s.AppendLog(ctx, &model.QueryLogEntry{Key: key, Timestamp: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	logs, err := s.ListRecentLogs(ctx, 50, "")
	require.NoError(t, err)
	require.Len(t, logs, 50)
	assert.Equal(t, "59", logs[0].Key.CaseNumber)
	for i := 1; i < len(logs); i++ {
		assert.False(t, logs[i].Timestamp.After(logs[i-1].Timestamp))
	}

	logs, err = s.ListRecentLogs(ctx, 0, "")
	require.NoError(t, err)
	assert.Len(t, logs, DefaultHistoryLimit)

	logs, err = s.ListRecentLogs(ctx, 5, model.QueryFailed)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestListCases(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		key := model.QueryKey{CaseType: "RFA", CaseNumber: fmt.Sprint(i), FilingYear: "2021"}
		require.NoError(t, s.Put(ctx, key, sampleRecord("Pending")))
	}

	cases, total, err := s.ListCases(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, cases, 2)
	assert.Equal(t, "RFA", cases[0].Key.CaseType)
	assert.Len(t, cases[0].Record.Parties, 3)

	cases, _, err = s.ListCases(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, cases, 1)

	cases, _, err = s.ListCases(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, cases, 3)
}

func TestPurge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testKey, sampleRecord("Pending")))
	for i := 0; i < 3; i++ {
		_, err := s.AppendLog(ctx, &model.QueryLogEntry{Key: testKey})
		require.NoError(t, err)
	}

	result, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, PurgeResult{QueryLogs: 3, Cases: 1}, result)

	_, err = s.GetLatest(ctx, testKey)
	assert.ErrorIs(t, err, ErrNotFound)
	logs, err := s.ListRecentLogs(ctx, 10, "")
	require.NoError(t, err)
	assert.Empty(t, logs)

	var parties int64
	s.db.Unscoped().Model(&Party{}).Count(&parties)
	assert.Zero(t, parties)

	require.NoError(t, s.Put(ctx, testKey, sampleRecord("Disposed")))
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cases.db")
	db, err := Initialize(path)
	require.NoError(t, err)

	s := NewStore(db, logger.NewNop())
	require.NoError(t, s.Put(context.Background(), testKey, sampleRecord("Pending")))

	c, err := Closer(db)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	db, err = Initialize(path)
	require.NoError(t, err)
	s = NewStore(db, logger.NewNop())
	got, err := s.GetLatest(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "Pending", got.CaseStatus)

	c, _ = Closer(db)
	assert.NoError(t, c.Close())
}
