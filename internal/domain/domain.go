package domain

import (
	"github.com/sejmwatch/sejmwatch-backend/internal/domain/chat"
	"github.com/sejmwatch/sejmwatch-backend/internal/domain/parliament"
	"github.com/sejmwatch/sejmwatch-backend/internal/domain/user"
)

const (
	RoleUser      = chat.RoleUser
	RoleAssistant = chat.RoleAssistant
	RoleSystem    = chat.RoleSystem
)

type (
	User      = user.User
	UserToken = user.UserToken

	Conversation        = chat.Conversation
	ConversationMessage = chat.ConversationMessage

	Print = parliament.Print
)
