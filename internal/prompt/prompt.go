// Package prompt assembles completion prompts from chat messages and
// session document context.
package prompt

import (
	"fmt"
	"strings"

	"docuchat/internal/models"
)

// Separator joins document chunks inside an assembled prompt.
const Separator = "\n\n---\n\n"

const (
	SystemChat = "You are a helpful assistant. " +
		"Answer the user's questions clearly and concisely."

	SystemDocument = "You are a helpful assistant. " +
		"The user has uploaded a document; its extracted content is included in the message. " +
		"Answer the user's question using that content. " +
		"If the answer is not in the document, say so instead of guessing."

	SystemSummarize = "You are a helpful assistant that summarizes user provided documents. " +
		"Produce a concise summary highlighting the key points and important details. " +
		"Limit the summary to 6 sentences."
)

// Build merges the active document record with the user's message into a
// single prompt. Without a record the message passes through unchanged.
// At most maxChunks leading chunks are included, in document order; no
// relevance ranking is performed, so context past the first few thousand
// characters of a large document is not visible to the model (known
// limitation). A non-positive maxChunks includes every chunk.
func Build(rec *models.DocumentRecord, userMessage string, maxChunks int) string {
	if rec == nil {
		return userMessage
	}
	n := maxChunks
	if n <= 0 || n > len(rec.Chunks) {
		n = len(rec.Chunks)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user has uploaded a document named %q.\n", rec.FileName)
	if rec.Summary != "" {
		b.WriteString("\nDocument summary:\n")
		b.WriteString(rec.Summary)
		b.WriteString("\n")
	}
	b.WriteString("\nDocument content:\n")
	b.WriteString(strings.Join(rec.Chunks[:n], Separator))
	b.WriteString("\n\nAnswer the user's question using the document content above.\n\nQuestion: ")
	b.WriteString(userMessage)
	return b.String()
}

// SummaryRequest returns the user prompt for summarizing the leading
// chunks of a freshly uploaded document.
func SummaryRequest(fileName string, chunks []string, maxChunks int) string {
	n := maxChunks
	if n <= 0 || n > len(chunks) {
		n = len(chunks)
	}
	return fmt.Sprintf("Document %q content:\n%s\n", fileName, strings.Join(chunks[:n], Separator))
}
