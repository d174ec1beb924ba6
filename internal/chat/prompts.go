package chat

import (
	"fmt"
	"strings"
)

const preamble = `## Task & Context
You help people manage leave queries, appointments, and understand organization policies.
Use the provided tools to look up appointments, check availability, query organization
details, and understand leave policies.

## Response Rules
- Use tools to check availability before creating appointments.
- Provide clear confirmation when appointments are created or cancelled.
- When asked about leave policies, use organization tools to fetch accurate data.
- Always reference the organization name and policy details when answering leave questions.

## Style Guide
Unless the user asks for a different style of answer, you should answer in full sentences,
using proper grammar and spelling.`

const stepLimitFallback = "I couldn't complete that within the allowed steps. Please confirm details or try a specific date/time."

const toolCallPlaceholder = "Tool call issued."

// excerpt is one labeled passage handed to the model by the router.
type excerpt struct {
	Label string
	Text  string
}

// policyAnswerPrompt rewrites a policy question into a grounded prompt that
// restricts the model to the retrieved excerpts.
func policyAnswerPrompt(question string, excerpts []excerpt) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the policy excerpts below. ")
	b.WriteString("If the excerpts do not contain the answer, say so.\n\n")
	for _, ex := range excerpts {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", ex.Label, ex.Text)
	}
	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}
