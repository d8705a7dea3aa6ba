package answer

import (
	"fmt"
	"strings"

	"github.com/teamdocs/rag-backend/internal/entity"
)

const systemPrompt = "You are a helpful assistant that provides accurate, " +
	"comprehensive answers based on the given context. Always cite your " +
	"sources using [Document: X, Page: Y] format."

// composePrompt builds the two-message prompt sent to the completion
// backend. Context parts are joined with a single space.
func composePrompt(question string, contextParts []string) []entity.Message {
	userPrompt := fmt.Sprintf(
		"Answer this question using only the context provided. "+
			"If you cannot answer based on the context, say so.\n\n"+
			"Context:\n%s\n\nQuestion: %s",
		strings.Join(contextParts, " "),
		question,
	)

	return []entity.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}
}
