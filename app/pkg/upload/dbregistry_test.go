package upload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/onetake/mediaupload/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var sessionColumns = []string{"id", "upload_id", "owner_id", "file_name", "content_type", "total_size",
	"draft_text", "draft_tags", "draft_visibility", "created_at"}

func newMockRegistry(t *testing.T) (*DBRegistry, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)
	return NewDBRegistry(db, nil), mock
}

func TestDBRegistryCreate(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name     string
		id       string
		mockFunc func(mock sqlmock.Sqlmock)
		wantErr  error
	}{
		{
			name: "新会话",
			id:   testId,
			mockFunc: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM `upload_session`").WillReturnRows(sqlmock.NewRows(sessionColumns))
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO `upload_session`").WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "重复会话",
			id:   testId,
			mockFunc: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM `upload_session`").WillReturnRows(sqlmock.NewRows(sessionColumns).
					AddRow(1, testId, "alice", "a.mp4", "video/mp4", 10, nil, "", nil, created))
			},
			wantErr: ErrAlreadyExists,
		},
		{
			name:     "非法id",
			id:       "not-hex",
			mockFunc: func(mock sqlmock.Sqlmock) {},
			wantErr:  ErrInvalidRequest,
		},
		{
			name: "写入失败",
			id:   testId,
			mockFunc: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM `upload_session`").WillReturnRows(sqlmock.NewRows(sessionColumns))
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO `upload_session`").WillReturnError(errors.New("duplicate key"))
				mock.ExpectRollback()
			},
			wantErr: errors.New("duplicate key"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mock := newMockRegistry(t)
			tt.mockFunc(mock)
			id, err := r.Create(context.Background(), &models.UploadSession{
				UploadId: tt.id, OwnerId: "alice", FileName: "a.mp4", ContentType: "video/mp4",
				TotalSize: 10, DraftTags: []string{"x"}, CreatedAt: created,
			})
			assert.NoError(t, mock.ExpectationsWereMet())
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, ErrAlreadyExists) || errors.Is(tt.wantErr, ErrInvalidRequest) {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestDBRegistryGet(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	text := "draft"

	r, mock := newMockRegistry(t)
	mock.ExpectQuery("SELECT \\* FROM `upload_session`").WillReturnRows(sqlmock.NewRows(sessionColumns).
		AddRow(1, testId, "alice", "a.mp4", "video/mp4", 12, text, `["a","b"]`, 1, created))
	got, err := r.Get(context.Background(), testId)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.OwnerId)
	assert.Equal(t, int64(12), got.TotalSize)
	require.NotNil(t, got.DraftText)
	assert.Equal(t, text, *got.DraftText)
	assert.Equal(t, []string{"a", "b"}, got.DraftTags)
	require.NotNil(t, got.DraftVisibility)
	assert.Equal(t, models.VisibilityFollowers, *got.DraftVisibility)
	assert.True(t, created.Equal(got.CreatedAt))

	// 不存在
	mock.ExpectQuery("SELECT \\* FROM `upload_session`").WillReturnRows(sqlmock.NewRows(sessionColumns))
	got, err = r.Get(context.Background(), testId)
	assert.NoError(t, err)
	assert.Nil(t, got)

	// 数据库异常向上返回
	mock.ExpectQuery("SELECT \\* FROM `upload_session`").WillReturnError(errors.New("bad connection"))
	_, err = r.Get(context.Background(), testId)
	assert.Error(t, err)

	// 非法 id 不查库
	got, err = r.Get(context.Background(), "../etc")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBRegistryDelete(t *testing.T) {
	r, mock := newMockRegistry(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `upload_session`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	r.Delete(context.Background(), testId)
	assert.NoError(t, mock.ExpectationsWereMet())
}
