package chat

import (
	"fmt"

	"gorm.io/gorm"

	redisclient "github.com/sejmwatch/sejmwatch-backend/internal/clients/redis"
	"github.com/sejmwatch/sejmwatch-backend/internal/config"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/graph"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/relational"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/repos"
	"github.com/sejmwatch/sejmwatch-backend/internal/modules/chat/steps"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/openai"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/tracing"
)

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	AI    openai.Client
	Cache redisclient.EmbeddingCache
	Graph graph.VectorSearcher
	Rel   relational.PrintSearcher

	Conversations repos.ConversationRepo
	Messages      repos.ConversationMessageRepo
	Prints        repos.PrintRepo

	Trace *tracing.Sink
	Cfg   config.ChatConfig
}

// Usecases is the chat module's entry point: one direct RAG flow and one
// tool-calling flow, both streaming over a realtime.Writer.
type Usecases struct {
	deps UsecasesDeps
}

func NewUsecases(deps UsecasesDeps) (*Usecases, error) {
	if deps.Log == nil || deps.AI == nil || deps.Conversations == nil || deps.Messages == nil {
		return nil, fmt.Errorf("chat usecases: missing deps")
	}
	return &Usecases{deps: deps}, nil
}

func (u *Usecases) retrieveDeps() steps.RetrieveDeps {
	return steps.RetrieveDeps{
		AI:    u.deps.AI,
		Cache: u.deps.Cache,
		Graph: u.deps.Graph,
		Rel:   u.deps.Rel,
		Log:   u.deps.Log,
	}
}
