package chat

import (
	"context"
	"strings"

	"orgdesk/internal/rag"
	"orgdesk/pkg/logging"
)

var policyKeywords = []string{
	"policy", "leave", "pto", "vacation", "sick",
	"benefits", "holiday", "allowance", "carry forward",
}

// IsPolicyQuestion reports whether the question looks like it concerns leave
// or organization policy.
func IsPolicyQuestion(question string) bool {
	lowered := strings.ToLower(question)
	for _, keyword := range policyKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// Router pre-retrieves policy excerpts for policy-flavored questions so the
// model starts from grounded context instead of spending steps on search
// tools. Everything else passes through untouched.
type Router struct {
	searcher *rag.Searcher
	topK     int
	logger   logging.Logger
}

func NewRouter(searcher *rag.Searcher, topK int, logger logging.Logger) *Router {
	if topK < 1 {
		topK = 5
	}
	return &Router{searcher: searcher, topK: topK, logger: logger}
}

// Rewrite returns the prompt to hand the orchestrator. Retrieval failures and
// empty result sets fall back to the raw question.
func (r *Router) Rewrite(ctx context.Context, question string, organizationIDs []string) string {
	if r.searcher == nil || !IsPolicyQuestion(question) {
		assistantRequestsTotal.WithLabelValues("direct").Inc()
		return question
	}

	matches, err := r.searcher.Query(ctx, question, r.topK, organizationIDs, rag.QueryTypePreRetrieval)
	if err != nil {
		r.logger.WithError(err).Warn("Policy pre-retrieval failed")
		assistantRequestsTotal.WithLabelValues("policy_fallback").Inc()
		return question
	}
	if len(matches) == 0 {
		assistantRequestsTotal.WithLabelValues("policy_fallback").Inc()
		return question
	}

	excerpts := make([]excerpt, 0, len(matches))
	for _, m := range matches {
		excerpts = append(excerpts, excerpt{Label: m.Label(), Text: m.Text})
	}
	assistantRequestsTotal.WithLabelValues("policy").Inc()
	return policyAnswerPrompt(question, excerpts)
}
