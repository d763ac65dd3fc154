package repositories

import (
	"context"
	"time"

	"eventhire_backend/internal/models"

	"gorm.io/gorm"
)

type ConversationFilter struct {
	UserID string
	Role   models.UserRole
	Status models.ConversationStatus
	// IncludeArchived is ignored when Status is set.
	IncludeArchived bool
	Page
}

// MessageCursor selects messages strictly after (After, AfterID) in
// (created_at, id) order.
type MessageCursor struct {
	After   *time.Time
	AfterID string
	Limit   int
}

type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	FindByID(ctx context.Context, id string) (*models.Conversation, error)
	FindByTriple(ctx context.Context, organizerID, professionalID, eventName string) (*models.Conversation, error)
	List(ctx context.Context, filter ConversationFilter) ([]models.Conversation, int64, error)
	// UpdateStatus moves the conversation from one status to another and
	// returns ErrStaleStatus when the stored row is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to models.ConversationStatus) error
	// RecordActivity advances last_message_at to at. It never moves back.
	RecordActivity(ctx context.Context, id string, at time.Time) error
	// SetLastRead advances the read marker of the participant with role.
	SetLastRead(ctx context.Context, id string, role models.UserRole, at time.Time) error
	// ArchiveIdle archives closed conversations without activity since before.
	ArchiveIdle(ctx context.Context, before time.Time) (int64, error)

	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID string, cursor MessageCursor) ([]models.Message, error)
	LastMessage(ctx context.Context, conversationID string) (*models.Message, error)
	// MarkRead flags unread messages sent by the other party as read.
	MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error)
	// UnreadCounts returns unread messages per conversation for userID.
	UnreadCounts(ctx context.Context, userID string, conversationIDs []string) (map[string]int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type conversationRepository struct {
	gormRepo
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{gormRepo{db: db}}
}

func (r *conversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	return duplicate(r.conn(ctx).Create(conv).Error, ErrConversationExists)
}

func (r *conversationRepository) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.conn(ctx).First(&conv, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrConversationNotFound)
	}
	return &conv, nil
}

func (r *conversationRepository) FindByTriple(ctx context.Context, organizerID, professionalID, eventName string) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.conn(ctx).
		Where("organizer_id = ? AND professional_id = ? AND event_name = ?", organizerID, professionalID, eventName).
		First(&conv).Error
	if err != nil {
		return nil, notFound(err, ErrConversationNotFound)
	}
	return &conv, nil
}

func (r *conversationRepository) List(ctx context.Context, f ConversationFilter) ([]models.Conversation, int64, error) {
	q := r.conn(ctx).Model(&models.Conversation{})

	switch f.Role {
	case models.UserRoleOrganizer:
		q = q.Where("organizer_id = ?", f.UserID)
	case models.UserRoleProfessional:
		q = q.Where("professional_id = ?", f.UserID)
	default:
		q = q.Where("organizer_id = ? OR professional_id = ?", f.UserID, f.UserID)
	}

	switch {
	case f.Status != "":
		q = q.Where("status = ?", f.Status)
	case !f.IncludeArchived:
		q = q.Where("status <> ?", models.ConversationStatusArchived)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var convs []models.Conversation
	err := q.Order("COALESCE(last_message_at, created_at) DESC, id ASC").
		Limit(f.Limit()).
		Offset(f.Offset()).
		Find(&convs).Error
	return convs, total, err
}

func (r *conversationRepository) UpdateStatus(ctx context.Context, id string, from, to models.ConversationStatus) error {
	result := r.conn(ctx).Model(&models.Conversation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrStaleStatus
	}
	return nil
}

func (r *conversationRepository) RecordActivity(ctx context.Context, id string, at time.Time) error {
	result := r.conn(ctx).Model(&models.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_message_at": gorm.Expr("GREATEST(COALESCE(last_message_at, ?), ?)", at, at),
			"updated_at":      now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (r *conversationRepository) SetLastRead(ctx context.Context, id string, role models.UserRole, at time.Time) error {
	column := "professional_last_read_at"
	if role == models.UserRoleOrganizer {
		column = "organizer_last_read_at"
	}
	result := r.conn(ctx).Model(&models.Conversation{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr("GREATEST(COALESCE("+column+", ?), ?)", at, at))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (r *conversationRepository) ArchiveIdle(ctx context.Context, before time.Time) (int64, error) {
	result := r.conn(ctx).Model(&models.Conversation{}).
		Where("status = ? AND COALESCE(last_message_at, created_at) < ?", models.ConversationStatusClosed, before).
		Updates(map[string]any{"status": models.ConversationStatusArchived, "updated_at": now()})
	return result.RowsAffected, result.Error
}

func (r *conversationRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	return r.conn(ctx).Create(msg).Error
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID string, cursor MessageCursor) ([]models.Message, error) {
	q := r.conn(ctx).Where("conversation_id = ?", conversationID)
	if cursor.After != nil {
		if cursor.AfterID != "" {
			q = q.Where("(created_at > ?) OR (created_at = ? AND id > ?)", *cursor.After, *cursor.After, cursor.AfterID)
		} else {
			q = q.Where("created_at > ?", *cursor.After)
		}
	}
	if cursor.Limit > 0 {
		q = q.Limit(cursor.Limit)
	}

	var msgs []models.Message
	err := q.Order("created_at ASC, id ASC").Find(&msgs).Error
	return msgs, err
}

func (r *conversationRepository) LastMessage(ctx context.Context, conversationID string) (*models.Message, error) {
	var msg models.Message
	err := r.conn(ctx).Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if err != nil {
		return nil, notFound(err, ErrMessageNotFound)
	}
	return &msg, nil
}

func (r *conversationRepository) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int64, error) {
	result := r.conn(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND read = ? AND sender_type <> ? AND sender_id <> ?",
			conversationID, false, models.SenderSystem, readerID).
		Updates(map[string]any{"read": true, "read_at": at})
	return result.RowsAffected, result.Error
}

func (r *conversationRepository) UnreadCounts(ctx context.Context, userID string, conversationIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return counts, nil
	}

	type row struct {
		ConversationID string
		Count          int64
	}
	var rows []row
	err := r.conn(ctx).Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("conversation_id IN ? AND read = ? AND sender_type <> ? AND sender_id <> ?",
			conversationIDs, false, models.SenderSystem, userID).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ConversationID] = row.Count
	}
	return counts, nil
}

func (r *conversationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.organizer_id = ? OR conversations.professional_id = ?)", userID, userID).
		Where("messages.read = ? AND messages.sender_type <> ? AND messages.sender_id <> ?",
			false, models.SenderSystem, userID).
		Count(&count).Error
	return count, err
}
