package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sejmwatch/sejmwatch-backend/internal/data/repos"
	types "github.com/sejmwatch/sejmwatch-backend/internal/domain"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/dbctx"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/apierr"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

type ConversationService interface {
	List(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error)
	Get(dbc dbctx.Context, userID, conversationID uuid.UUID, messageLimit int) (*types.Conversation, []*types.ConversationMessage, error)
	Delete(dbc dbctx.Context, userID, conversationID uuid.UUID) error
	Rename(dbc dbctx.Context, userID, conversationID uuid.UUID, title string) error
}

type conversationService struct {
	log           *logger.Logger
	conversations repos.ConversationRepo
	messages      repos.ConversationMessageRepo
}

func NewConversationService(log *logger.Logger, conversations repos.ConversationRepo, messages repos.ConversationMessageRepo) ConversationService {
	return &conversationService{
		log:           log.With("service", "ConversationService"),
		conversations: conversations,
		messages:      messages,
	}
}

func (cs *conversationService) List(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Conversation, error) {
	return cs.conversations.ListByUser(dbc, userID, limit)
}

func (cs *conversationService) Get(dbc dbctx.Context, userID, conversationID uuid.UUID, messageLimit int) (*types.Conversation, []*types.ConversationMessage, error) {
	conv, err := cs.owned(dbc, userID, conversationID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := cs.messages.ListByConversation(dbc, conversationID, messageLimit)
	if err != nil {
		return nil, nil, err
	}
	return conv, msgs, nil
}

func (cs *conversationService) Delete(dbc dbctx.Context, userID, conversationID uuid.UUID) error {
	if _, err := cs.owned(dbc, userID, conversationID); err != nil {
		return err
	}
	return cs.conversations.Delete(dbc, conversationID)
}

func (cs *conversationService) Rename(dbc dbctx.Context, userID, conversationID uuid.UUID, title string) error {
	if _, err := cs.owned(dbc, userID, conversationID); err != nil {
		return err
	}
	return cs.conversations.UpdateTitle(dbc, conversationID, title)
}

func (cs *conversationService) owned(dbc dbctx.Context, userID, conversationID uuid.UUID) (*types.Conversation, error) {
	conv, err := cs.conversations.GetByID(dbc, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil || conv.UserID != userID {
		return nil, apierr.New(404, "conversation_not_found", fmt.Errorf("conversation not found"))
	}
	return conv, nil
}
