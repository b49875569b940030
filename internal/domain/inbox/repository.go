package inbox

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tattoostudio/internal/database"
)

type Repository interface {
	CreateConversation(ctx context.Context, c *Conversation) error
	GetConversation(ctx context.Context, studioID int64, id string) (*Conversation, error)
	GetConversationByID(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, studioID int64, f ListFilter) ([]Conversation, int64, error)
	UpdateConversation(ctx context.Context, id string, changes map[string]any) error

	CreateMessage(ctx context.Context, m *Message, touch map[string]any) error
	GetMessage(ctx context.Context, id string) (*Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	UpdateMessage(ctx context.Context, id string, changes map[string]any) error

	UnreadByConversation(ctx context.Context, ids []string) (map[string]int64, error)
	MarkRead(ctx context.Context, conversationID string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, studioID int64, assigneeID *int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateConversation(ctx context.Context, c *Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) GetConversation(ctx context.Context, studioID int64, id string) (*Conversation, error) {
	var c Conversation
	err := r.db.WithContext(ctx).Where("id = ? AND studio_id = ?", id, studioID).First(&c).Error
	if database.IsNotFound(err) {
		return nil, ErrConversationNotFound
	}
	return &c, err
}

func (r *repository) GetConversationByID(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if database.IsNotFound(err) {
		return nil, ErrConversationNotFound
	}
	return &c, err
}

func (r *repository) ListConversations(ctx context.Context, studioID int64, f ListFilter) ([]Conversation, int64, error) {
	q := r.db.WithContext(ctx).Model(&Conversation{}).Where("studio_id = ?", studioID)
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Unassigned {
		q = q.Where("assignee_id IS NULL")
	} else if f.AssigneeID != nil {
		q = q.Where("assignee_id = ?", *f.AssigneeID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []Conversation
	err := q.Order("last_message_at DESC NULLS LAST, created_at DESC").
		Limit(limit).
		Offset(f.Offset).
		Find(&out).Error
	return out, total, err
}

func (r *repository) UpdateConversation(ctx context.Context, id string, changes map[string]any) error {
	res := r.db.WithContext(ctx).Model(&Conversation{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// CreateMessage inserts m and applies touch to its conversation in one
// transaction.
func (r *repository) CreateMessage(ctx context.Context, m *Message, touch map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if len(touch) == 0 {
			return nil
		}
		return tx.Model(&Conversation{}).Where("id = ?", m.ConversationID).Updates(touch).Error
	})
}

func (r *repository) GetMessage(ctx context.Context, id string) (*Message, error) {
	var m Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if database.IsNotFound(err) {
		return nil, ErrMessageNotFound
	}
	return &m, err
}

func (r *repository) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var out []Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sent_at ASC, created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *repository) UpdateMessage(ctx context.Context, id string, changes map[string]any) error {
	return r.db.WithContext(ctx).Model(&Message{}).Where("id = ?", id).Updates(changes).Error
}

func (r *repository) UnreadByConversation(ctx context.Context, ids []string) (map[string]int64, error) {
	out := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ConversationID string
		Unread         int64
	}
	err := r.db.WithContext(ctx).Model(&Message{}).
		Select("conversation_id, COUNT(*) AS unread").
		Where("conversation_id IN ? AND direction = ? AND read_at IS NULL", ids, DirectionInbound).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ConversationID] = row.Unread
	}
	return out, nil
}

// MarkRead stamps every inbound message of the conversation that was unread
// and had arrived by at, then moves an unread conversation to pending unless
// a newer message is still waiting. The stamp is a single statement, so a
// message inserted concurrently is either fully included or left unread.
func (r *repository) MarkRead(ctx context.Context, conversationID string, at time.Time) (int64, error) {
	var marked int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Message{}).
			Where("conversation_id = ? AND direction = ? AND read_at IS NULL AND created_at <= ?",
				conversationID, DirectionInbound, at).
			Update("read_at", at)
		if res.Error != nil {
			return res.Error
		}
		marked = res.RowsAffected

		waiting := tx.Model(&Message{}).Select("1").
			Where("conversation_id = ? AND direction = ? AND read_at IS NULL", conversationID, DirectionInbound)
		return tx.Model(&Conversation{}).
			Where("id = ? AND status = ?", conversationID, StatusUnread).
			Where("NOT EXISTS (?)", waiting).
			Updates(map[string]any{"status": StatusPending, "updated_at": at}).Error
	})
	return marked, err
}

func (r *repository) CountUnread(ctx context.Context, studioID int64, assigneeID *int64) (int64, error) {
	q := r.db.WithContext(ctx).Model(&Message{}).
		Joins("JOIN inbox_conversations ON inbox_conversations.id = inbox_messages.conversation_id").
		Where("inbox_conversations.studio_id = ? AND inbox_messages.direction = ? AND inbox_messages.read_at IS NULL",
			studioID, DirectionInbound)
	if assigneeID != nil {
		q = q.Where("inbox_conversations.assignee_id = ?", *assigneeID)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
