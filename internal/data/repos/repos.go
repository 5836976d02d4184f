package repos

import (
	"gorm.io/gorm"

	"github.com/sejmwatch/sejmwatch-backend/internal/data/repos/auth"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/repos/chat"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/repos/parliament"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/repos/user"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type ConversationRepo = chat.ConversationRepo
type ConversationMessageRepo = chat.ConversationMessageRepo

type PrintRepo = parliament.PrintRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return chat.NewConversationRepo(db, baseLog)
}
func NewConversationMessageRepo(db *gorm.DB, baseLog *logger.Logger) ConversationMessageRepo {
	return chat.NewConversationMessageRepo(db, baseLog)
}

func NewPrintRepo(db *gorm.DB, baseLog *logger.Logger) PrintRepo {
	return parliament.NewPrintRepo(db, baseLog)
}
