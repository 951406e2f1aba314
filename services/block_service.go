package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wavechat/wavechat-backend/models"
)

// BlockService answers "may these two users message each other". Block rows
// are written by the moderation surface; this service only reads them.
type BlockService struct {
	db *gorm.DB
}

func NewBlockService(db *gorm.DB) *BlockService {
	return &BlockService{db: db}
}

// IsBlocked reports whether a block exists between the pair in either
// direction. The answer is symmetric in its arguments.
func (s *BlockService) IsBlocked(a, b uuid.UUID) (bool, error) {
	var count int64
	err := s.db.Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
