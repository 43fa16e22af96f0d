package repo

import (
	"github.com/onetake/mediaupload/app/models"
	"gorm.io/gorm"
)

type mediaObjectRepo struct{}

// NewMediaObjectRepo .
func NewMediaObjectRepo() *mediaObjectRepo { return &mediaObjectRepo{} }

// GetByUid .
func (r *mediaObjectRepo) GetByUid(db *gorm.DB, uid int64) (*models.MediaObject, error) {
	ret := &models.MediaObject{}
	if err := db.Where("uid = ?", uid).First(ret).Error; err != nil {
		return ret, err
	}
	return ret, nil
}

// Create .
func (r *mediaObjectRepo) Create(db *gorm.DB, m *models.MediaObject) error {
	return db.Create(m).Error
}
