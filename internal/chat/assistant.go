package chat

import (
	"context"

	"orgdesk/internal/directory"
	"orgdesk/internal/identity"
	"orgdesk/pkg/llm"
	"orgdesk/pkg/logging"
)

// Answer is one completed assistant run.
type Answer struct {
	Response  string
	SessionID string
	Messages  []llm.Turn
}

// Assistant ties the router, registry, and orchestrator together and owns
// session continuity. One Assistant serves all sessions.
type Assistant struct {
	orchestrator *Orchestrator
	builder      *RegistryBuilder
	router       *Router
	sessions     *MemorySessionStore
	directory    *directory.Store
	logger       logging.Logger
}

func NewAssistant(
	orchestrator *Orchestrator,
	builder *RegistryBuilder,
	router *Router,
	sessions *MemorySessionStore,
	directoryStore *directory.Store,
	logger logging.Logger,
) *Assistant {
	return &Assistant{
		orchestrator: orchestrator,
		builder:      builder,
		router:       router,
		sessions:     sessions,
		directory:    directoryStore,
		logger:       logger,
	}
}

// Ask answers one question. The caller's identity travels on the context;
// an anonymous context gets the gated tools withheld. An empty sessionID
// means a stateless run. Sessions are serialized so concurrent questions
// cannot interleave their history updates.
func (a *Assistant) Ask(ctx context.Context, question, sessionID string) Answer {
	userID := identity.GetUserID(ctx)
	var history []llm.Turn
	if sessionID != "" {
		unlock := a.sessions.LockSession(sessionID)
		defer unlock()
		history = a.sessions.Get(sessionID)
	}

	prompt := question
	if a.router != nil {
		prompt = a.router.Rewrite(ctx, question, a.membershipIDs(ctx, userID))
	}

	registry := a.builder.Resolve(userID)
	response, grown := a.orchestrator.Run(ctx, prompt, history, registry)

	if sessionID != "" {
		a.sessions.Put(sessionID, grown)
	}
	return Answer{
		Response:  response,
		SessionID: sessionID,
		Messages:  grown,
	}
}

// membershipIDs scopes policy pre-retrieval to the caller's organizations.
// Lookup failures degrade to an unscoped search rather than failing the run.
func (a *Assistant) membershipIDs(ctx context.Context, userID string) []string {
	if userID == "" || a.directory == nil {
		return nil
	}
	ids, err := a.directory.GetOrganizationIDsForUser(ctx, userID)
	if err != nil {
		a.logger.WithError(err).Warn("Membership lookup failed")
		return nil
	}
	return ids
}
