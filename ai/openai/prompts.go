package openai

import (
	"fmt"
	"strings"
)

const qaSystemPrompt = `You are a log analysis assistant. Answer the operator's question using ONLY the
log excerpts provided in the message. Each excerpt is preceded by its source
filename in square brackets.

Rules:
- Base every statement on the provided excerpts; do not invent log content.
- When citing a finding, mention the source filename it came from.
- Quote timestamps, error names, and messages exactly as they appear.
- If the excerpts do not contain the answer, or no excerpts were provided,
  say that no relevant logs were found. Do not fabricate an answer.
- Keep the answer concise and factual.`

// buildUserPrompt assembles the question and the retrieved excerpts into a
// single user message, preserving the retrieval ranking order.
func buildUserPrompt(query string, contexts []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %s\n\n", query)

	if len(contexts) == 0 {
		b.WriteString("Log excerpts: none matched the query.\n")
		return b.String()
	}

	b.WriteString("Log excerpts:\n\n")
	for i, excerpt := range contexts {
		fmt.Fprintf(&b, "--- excerpt %d ---\n%s\n\n", i+1, excerpt)
	}

	return b.String()
}
