package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/repositories"
)

type MessagePostgreSQL struct {
	db *gorm.DB
}

func NewMessagePostgreSQL(db *gorm.DB) repositories.MessageRepository {
	return &MessagePostgreSQL{db: db}
}

func (m *MessagePostgreSQL) Create(ctx context.Context, message *models.Message) error {
	if message.Version == 0 {
		message.Version = 1
	}
	if err := m.db.WithContext(ctx).Omit(clause.Associations).Create(message).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", translateError(err))
	}
	return nil
}

func (m *MessagePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	if err := m.db.WithContext(ctx).Preload("Sender").First(&message, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &message, nil
}

func (m *MessagePostgreSQL) List(ctx context.Context, lessonID *uint) ([]*models.Message, error) {
	query := m.db.WithContext(ctx).Model(&models.Message{}).Preload("Sender")
	if lessonID != nil {
		query = query.Where("lesson_id = ?", *lessonID)
	}

	var messages []*models.Message
	if err := query.Order("created_at ASC, id ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (m *MessagePostgreSQL) Update(ctx context.Context, message *models.Message) error {
	err := versionedUpdate(ctx, m.db, &models.Message{}, message.ID, message.Version, map[string]interface{}{
		"content":   message.Content,
		"is_edited": message.IsEdited,
		"edited_at": message.EditedAt,
	})
	if err != nil {
		return err
	}
	message.Version++
	return nil
}

func (m *MessagePostgreSQL) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, m.db, &models.Message{}, id)
}
