package repo

import (
	"github.com/onetake/mediaupload/app/models"
	"gorm.io/gorm"
)

type postRepo struct{}

// NewPostRepo .
func NewPostRepo() *postRepo { return &postRepo{} }

// Create .
func (r *postRepo) Create(db *gorm.DB, m *models.Post) error {
	return db.Create(m).Error
}
