package repo

import (
	"github.com/onetake/mediaupload/app/models"
	"gorm.io/gorm"
)

type uploadSessionRepo struct{}

// NewUploadSessionRepo .
func NewUploadSessionRepo() *uploadSessionRepo { return &uploadSessionRepo{} }

// GetByUploadId 不存在时返回 gorm.ErrRecordNotFound
func (r *uploadSessionRepo) GetByUploadId(db *gorm.DB, uploadId string) (*models.UploadSessionRecord, error) {
	ret := &models.UploadSessionRecord{}
	if err := db.Where("upload_id = ?", uploadId).First(ret).Error; err != nil {
		return nil, err
	}
	return ret, nil
}

// Create .
func (r *uploadSessionRepo) Create(db *gorm.DB, m *models.UploadSessionRecord) error {
	return db.Create(m).Error
}

// DeleteByUploadId .
func (r *uploadSessionRepo) DeleteByUploadId(db *gorm.DB, uploadId string) error {
	return db.Where("upload_id = ?", uploadId).Delete(&models.UploadSessionRecord{}).Error
}
