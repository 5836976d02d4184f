package chat

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/sejmwatch/sejmwatch-backend/internal/domain"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/dbctx"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

type ConversationMessageRepo interface {
	Create(dbc dbctx.Context, rows []*types.ConversationMessage) ([]*types.ConversationMessage, error)
	GetMaxSeq(dbc dbctx.Context, conversationID uuid.UUID) (int64, error)
	// ListRecent returns the newest messages in ascending seq order.
	ListRecent(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.ConversationMessage, error)
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.ConversationMessage, error)
}

type conversationMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationMessageRepo(db *gorm.DB, log *logger.Logger) ConversationMessageRepo {
	return &conversationMessageRepo{db: db, log: log.With("repo", "ConversationMessageRepo")}
}

func (r *conversationMessageRepo) Create(dbc dbctx.Context, rows []*types.ConversationMessage) ([]*types.ConversationMessage, error) {
	if len(rows) == 0 {
		return []*types.ConversationMessage{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conversationMessageRepo) GetMaxSeq(dbc dbctx.Context, conversationID uuid.UUID) (int64, error) {
	if conversationID == uuid.Nil {
		return 0, fmt.Errorf("missing conversation_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var maxSeq int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.ConversationMessage{}).
		Where("conversation_id = ?", conversationID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error; err != nil {
		return 0, err
	}
	return maxSeq, nil
}

func (r *conversationMessageRepo) ListRecent(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.ConversationMessage, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation_id")
	}
	if limit <= 0 {
		limit = 20
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var rows []*types.ConversationMessage
	if err := txx.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Order("seq DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	// Flip back to chronological order for prompt assembly.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (r *conversationMessageRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]*types.ConversationMessage, error) {
	if conversationID == uuid.Nil {
		return nil, fmt.Errorf("missing conversation_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).
		Where("conversation_id = ?", conversationID).
		Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []*types.ConversationMessage
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
