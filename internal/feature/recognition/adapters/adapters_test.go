package adapters

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fingerprint_access/internal/feature/recognition/domain"
	"fingerprint_access/internal/feature/recognition/domain/entity"
	"fingerprint_access/internal/feature/recognition/usecase"
)

// setupTestDB prepares an in-memory SQLite database with every recognition table.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to initialize test database")

	err = db.AutoMigrate(Models()...)
	require.NoError(t, err, "failed to migrate tables")

	return db
}

// closedDB returns a database whose connection pool has been closed, so every query fails.
func closedDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	return db
}

func strPtr(s string) *string { return &s }

func TestModelStore_FindModel(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	require.NoError(t, db.Create(&BiometricModel{ID: "m1", Kind: "segmentation", PathName: "/models/seg-v1.pth", Version: "1"}).Error)
	require.NoError(t, db.Create(&BiometricModel{ID: "m1", Kind: "recognition", PathName: "/models/rec-v1.pth"}).Error)
	store := NewModelStore(db)

	tests := []struct {
		name     string
		kind     entity.ModelKind
		id       string
		wantPath string
		wantErr  error
	}{
		{"segmentation", entity.ModelKindSegmentation, "m1", "/models/seg-v1.pth", nil},
		{"same id other kind", entity.ModelKindRecognition, "m1", "/models/rec-v1.pth", nil},
		{"unknown id", entity.ModelKindRecognition, "m9", "", domain.ErrModelNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ref, err := store.FindModel(context.Background(), tt.kind, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				var nf *domain.ModelNotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, tt.id, nf.ID)
				assert.Equal(t, tt.kind, nf.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, ref.ID)
			assert.Equal(t, tt.kind, ref.Kind)
			assert.Equal(t, tt.wantPath, ref.PathName)
		})
	}
}

func TestModelStore_FindModel_Unavailable(t *testing.T) {
	t.Parallel()

	store := NewModelStore(closedDB(t))

	_, err := store.FindModel(context.Background(), entity.ModelKindSegmentation, "m1")

	assert.ErrorIs(t, err, domain.ErrModelRegistryUnavailable)
	assert.NotErrorIs(t, err, domain.ErrModelNotFound)
}

func TestAccessControlStore_FindArea(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	require.NoError(t, db.Create(&AreaModel{ID: "A1", Name: "Server room"}).Error)
	store := NewAccessControlStore(db)

	area, err := store.FindArea(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, &entity.Area{ID: "A1", Name: "Server room"}, area)

	_, err = store.FindArea(context.Background(), "A404")
	assert.ErrorIs(t, err, domain.ErrAreaNotFound)

	_, err = NewAccessControlStore(closedDB(t)).FindArea(context.Background(), "A1")
	assert.ErrorIs(t, err, domain.ErrAccessControlUnavailable)
}

func TestAccessControlStore_HasGrant(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	require.NoError(t, db.Create(&AreaGrantModel{SubjectID: "E1", AreaID: "A1"}).Error)
	store := NewAccessControlStore(db)
	ctx := context.Background()

	ok, err := store.HasGrant(ctx, "E1", "A1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.HasGrant(ctx, "E1", "A2")
	require.NoError(t, err)
	assert.False(t, ok)

	// 許可を取り消すと次の判定から拒否になる
	require.NoError(t, db.Where("subject_id = ? AND area_id = ?", "E1", "A1").Delete(&AreaGrantModel{}).Error)
	ok, err = store.HasGrant(ctx, "E1", "A1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccessControlStore_GrantIsUnique(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	require.NoError(t, db.Create(&AreaGrantModel{SubjectID: "E1", AreaID: "A1"}).Error)

	err := db.Create(&AreaGrantModel{SubjectID: "E1", AreaID: "A1"}).Error

	assert.Error(t, err)
}

func TestAccessControlStore_HasGrant_Unavailable(t *testing.T) {
	t.Parallel()

	store := NewAccessControlStore(closedDB(t))

	_, err := store.HasGrant(context.Background(), "E1", "A1")

	assert.ErrorIs(t, err, domain.ErrAccessControlUnavailable)
}

func TestSubjectDirectory_FindSubject(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	require.NoError(t, db.Create(&SubjectModel{ID: "E1", Name: "Hanako Sato"}).Error)
	dir := NewSubjectDirectory(db)

	s, err := dir.FindSubject(context.Background(), "E1")
	require.NoError(t, err)
	assert.Equal(t, "Hanako Sato", s.Name)

	_, err = dir.FindSubject(context.Background(), "E2")
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}

func TestSampleDirectory_FindSample(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	require.NoError(t, db.Create(&FingerprintSampleModel{ID: "F1", SubjectID: "E1", Active: true}).Error)
	require.NoError(t, db.Create(&FingerprintSampleModel{ID: "F2", SubjectID: "E1", Active: false}).Error)
	dir := NewSampleDirectory(db)

	tests := []struct {
		id         string
		wantActive bool
		wantErr    error
	}{
		{id: "F1", wantActive: true},
		{id: "F2", wantActive: false},
		{id: "F3", wantErr: domain.ErrSampleNotFound},
	}
	for _, tt := range tests {
		s, err := dir.FindSample(context.Background(), tt.id)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, tt.id)
			continue
		}
		require.NoError(t, err, tt.id)
		assert.Equal(t, tt.id, s.ID)
		assert.Equal(t, tt.wantActive, s.Active, tt.id)
	}
}

func TestAccessLogRepository_CreateAndLink(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewAccessLogRepository(db)
	ctx := context.Background()
	ts := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	entry := &entity.AccessLogEntry{
		ID:         "log-1",
		AreaID:     strPtr("A1"),
		SubjectID:  strPtr("E1"),
		DeviceID:   "scanner-7",
		Timestamp:  ts,
		AccessType: entity.AccessTypeEntry,
		Authorized: true,
	}
	require.NoError(t, repo.Create(ctx, entry))
	require.NoError(t, repo.LinkRecognition(ctx, "log-1", "rec-1"))

	var got AccessLogModel
	require.NoError(t, db.First(&got, "id = ?", "log-1").Error)
	assert.Equal(t, "A1", *got.AreaID)
	assert.Equal(t, "E1", *got.SubjectID)
	assert.Equal(t, "scanner-7", got.DeviceID)
	assert.Equal(t, "ENTRY", got.AccessType)
	assert.True(t, got.Authorized)
	assert.True(t, ts.Equal(got.Timestamp))
	require.NotNil(t, got.RecognitionID)
	assert.Equal(t, "rec-1", *got.RecognitionID)
	assert.Nil(t, got.ScanKey, "empty scan key must be stored as NULL")
}

func TestAccessLogRepository_LinkUnknownLog(t *testing.T) {
	t.Parallel()

	repo := NewAccessLogRepository(setupTestDB(t))

	err := repo.LinkRecognition(context.Background(), "missing", "rec-1")

	assert.Error(t, err)
}

func TestAccessLogRepository_ScanKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		first   [2]string // device, key
		second  [2]string
		wantErr error
	}{
		{name: "no keys never collide", first: [2]string{"scanner-A", ""}, second: [2]string{"scanner-A", ""}},
		{name: "distinct keys", first: [2]string{"scanner-A", "k-1"}, second: [2]string{"scanner-A", "k-2"}},
		{name: "same key on another device", first: [2]string{"scanner-A", "1"}, second: [2]string{"scanner-B", "1"}},
		{name: "same key on the same device is a duplicate scan", first: [2]string{"scanner-A", "k-1"}, second: [2]string{"scanner-A", "k-1"}, wantErr: domain.ErrDuplicateScan},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			repo := NewAccessLogRepository(db)
			ctx := context.Background()

			mk := func(id string, scan [2]string) *entity.AccessLogEntry {
				return &entity.AccessLogEntry{ID: id, DeviceID: scan[0], Timestamp: time.Now().UTC(), AccessType: entity.AccessTypeEntry, ScanKey: scan[1]}
			}
			require.NoError(t, repo.Create(ctx, mk("log-1", tt.first)))
			err := repo.Create(ctx, mk("log-2", tt.second))

			var count int64
			require.NoError(t, db.Model(&AccessLogModel{}).Count(&count).Error)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, int64(1), count)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, int64(2), count)
		})
	}
}

func TestIsDuplicateKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"gorm translated", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"postgres other", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite message", errors.New("UNIQUE constraint failed: access_logs.scan_key"), true},
		{"other", errors.New("disk I/O error"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicateKey(tt.err))
		})
	}
}

func TestRecognitionEventRepository_Create(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewRecognitionEventRepository(db)
	ts := time.Date(2026, 4, 1, 9, 0, 1, 0, time.UTC)

	err := repo.Create(context.Background(), &entity.RecognitionEvent{
		ID:                  "rec-1",
		SubjectID:           strPtr("E1"),
		SampleID:            strPtr("F1"),
		AccessLogID:         "log-1",
		SegmentationModelID: "seg-1",
		RecognitionModelID:  "rec-model-1",
		Confidence:          0.92,
		ImageDigest:         "abcd",
		Timestamp:           ts,
	})
	require.NoError(t, err)

	var got RecognitionEventModel
	require.NoError(t, db.First(&got, "id = ?", "rec-1").Error)
	assert.Equal(t, "log-1", got.AccessLogID)
	assert.Equal(t, 0.92, got.Confidence)
	assert.Equal(t, "abcd", got.ImageDigest)
	require.NotNil(t, got.SampleID)
	assert.Equal(t, "F1", *got.SampleID)
	assert.True(t, ts.Equal(got.Timestamp))
}

// TestDecisionRecorder_WithGormStores は監査記録の順序と参照整合性を実DBで検証します。
func TestDecisionRecorder_WithGormStores(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	logs := NewAccessLogRepository(db)
	recorder := usecase.NewDecisionRecorder(logs, NewRecognitionEventRepository(db), logs)
	ctx := context.Background()

	entry, warnings, err := recorder.Record(ctx, ctx, usecase.RecordInput{
		Decision:            entity.AccessDecision{Matched: true, Authorized: true, SubjectID: strPtr("E1"), Confidence: 0.92},
		AreaID:              strPtr("A1"),
		AccessType:          entity.AccessTypeEntry,
		DeviceID:            "scanner-7",
		SegmentationModelID: "seg-1",
		RecognitionModelID:  "rec-1",
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.NotNil(t, entry.RecognitionID)

	var logRow AccessLogModel
	require.NoError(t, db.First(&logRow, "id = ?", entry.ID).Error)
	var events []RecognitionEventModel
	require.NoError(t, db.Where("access_log_id = ?", entry.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, *entry.RecognitionID, events[0].ID)
	assert.Equal(t, *logRow.RecognitionID, events[0].ID)
	assert.False(t, events[0].Timestamp.Before(logRow.Timestamp))
}

// TestDecisionRecorder_SameScanKeyOnTwoDevices は別々の端末が同じ冪等キーを使っても両方のスキャンが記録されることを検証します。
func TestDecisionRecorder_SameScanKeyOnTwoDevices(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	logs := NewAccessLogRepository(db)
	recorder := usecase.NewDecisionRecorder(logs, NewRecognitionEventRepository(db), logs)
	ctx := context.Background()

	record := func(device string) error {
		_, _, err := recorder.Record(ctx, ctx, usecase.RecordInput{
			Decision:            entity.AccessDecision{Matched: true, Authorized: true, SubjectID: strPtr("E1"), Confidence: 0.9},
			AccessType:          entity.AccessTypeEntry,
			DeviceID:            device,
			ScanKey:             "1",
			SegmentationModelID: "seg-1",
			RecognitionModelID:  "rec-1",
		})
		return err
	}

	require.NoError(t, record("scanner-A"))
	require.NoError(t, record("scanner-B"))
	// 同じ端末からの再送は重複
	assert.ErrorIs(t, record("scanner-A"), domain.ErrDuplicateScan)

	var count int64
	require.NoError(t, db.Model(&AccessLogModel{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
