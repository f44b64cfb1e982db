package composer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"bookrag/internal/config"
	"bookrag/internal/models"
)

// DefaultPromptCharBudget bounds the assembled context when the config does
// not set one. Counted in runes over the labeled context blocks.
const DefaultPromptCharBudget = 16000

var labelRe = regexp.MustCompile(`\[([^\[\]\n]+)\]`)

// Composer builds the grounded prompt, invokes the generative model, and
// validates the citation labels the model referenced.
type Composer struct {
	llm    llms.Model
	cfg    *config.LLMConfig
	budget int
}

func New(llm llms.Model, cfg *config.LLMConfig, promptCharBudget int) *Composer {
	if promptCharBudget <= 0 {
		promptCharBudget = DefaultPromptCharBudget
	}
	return &Composer{llm: llm, cfg: cfg, budget: promptCharBudget}
}

// PackContext fits labeled source blocks into the prompt budget by dropping
// whole lowest-ranked entries from the tail. A chunk is never truncated
// mid-text: a partially quoted passage could no longer be cited verbatim.
// The first block is kept even if it alone exceeds the budget, so a
// non-empty ranking always produces non-empty context.
func PackContext(sources []models.Citation, budget int) []models.Citation {
	if len(sources) == 0 {
		return nil
	}
	used := 0
	kept := make([]models.Citation, 0, len(sources))
	for i, src := range sources {
		cost := len([]rune(contextBlock(src)))
		if i > 0 && used+cost > budget {
			break
		}
		used += cost
		kept = append(kept, src)
	}
	return kept
}

func contextBlock(src models.Citation) string {
	return fmt.Sprintf("[%s]\n%s", src.Label, src.Text)
}

// BuildPrompt assembles the user prompt from the packed context, the
// verbatim question, and the optional additional context.
func BuildPrompt(question, additionalContext string, packed []models.Citation) string {
	blocks := make([]string, 0, len(packed))
	for _, src := range packed {
		blocks = append(blocks, contextBlock(src))
	}
	contextText := strings.Join(blocks, "\n\n")
	if contextText == "" {
		contextText = "No supporting context retrieved."
	}

	extra := ""
	if additionalContext != "" {
		extra = "\nAdditional context: " + additionalContext
	}
	return fmt.Sprintf(models.GroundedUserPromptTemplate, contextText, question, extra)
}

// Compose runs the full composition step against the ranked sources and
// returns the answer text plus the deduplicated labels it referenced, in
// first-mention order. Labels the model invented are stripped from the
// answer, never turned into citations.
func (c *Composer) Compose(ctx context.Context, question, additionalContext string, sources []models.Citation, temperature *float64) (string, []string, error) {
	packed := PackContext(sources, c.budget)
	if len(packed) < len(sources) {
		log.Debug().
			Int("kept", len(packed)).
			Int("ranked", len(sources)).
			Msg("dropped tail chunks to fit prompt budget")
	}

	prompt := BuildPrompt(question, additionalContext, packed)
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, models.GroundedSystemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	var opts []llms.CallOption
	if temperature != nil {
		opts = append(opts, llms.WithTemperature(*temperature))
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	res, err := c.llm.GenerateContent(callCtx, messages, opts...)
	if err != nil {
		return "", nil, err
	}
	if len(res.Choices) == 0 || strings.TrimSpace(res.Choices[0].Content) == "" {
		return "", nil, fmt.Errorf("model returned an empty answer")
	}

	answer := strings.TrimSpace(res.Choices[0].Content)
	supplied := make(map[string]bool, len(packed))
	for _, src := range packed {
		supplied[src.Label] = true
	}
	answer, citations := ValidateLabels(answer, supplied)
	return answer, citations, nil
}

// ValidateLabels extracts bracketed labels from the answer, keeps the ones
// present in the supplied set (deduplicated, first mention first), and
// strips references to labels that were never supplied.
func ValidateLabels(answer string, supplied map[string]bool) (string, []string) {
	var citations []string
	seen := make(map[string]bool)
	for _, m := range labelRe.FindAllStringSubmatch(answer, -1) {
		label := m[1]
		if !supplied[label] {
			continue
		}
		if !seen[label] {
			seen[label] = true
			citations = append(citations, label)
		}
	}

	answer = labelRe.ReplaceAllStringFunc(answer, func(ref string) string {
		label := strings.TrimSuffix(strings.TrimPrefix(ref, "["), "]")
		if supplied[label] {
			return ref
		}
		log.Warn().Str("label", label).Msg("model referenced an unknown citation label; stripped")
		return ""
	})
	answer = strings.TrimSpace(strings.ReplaceAll(answer, "  ", " "))
	return answer, citations
}
