package models

const (
	DefaultChunkSize    = 1600
	DefaultChunkOverlap = 300
	DefaultPoolSize     = 25
	DefaultTopK         = 4

	MaxTemperature = 2.0
)

var (
	GroundedSystemPrompt = `You are a careful research assistant. Answer the question using ONLY the context passages below. Each passage is tagged with a citation label in square brackets, e.g. [Title - Chapter, p.12].

Rules:
- Base every claim on the supplied passages. If the context does not contain the answer, say so plainly.
- After each claim, cite the supporting passage by repeating its label in square brackets exactly as given.
- Never invent a label that is not in the context.
- Answer in the language of the question.`

	GroundedUserPromptTemplate = `Context:
%s

Question: %s%s`
)
