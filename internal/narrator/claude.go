package narrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const systemPrompt = "You are the narrator of a gritty tabletop combat. " +
	"Given a mechanical summary of one combat beat, respond with one or two " +
	"vivid sentences of narration. Never mention numbers, dice, or game terms."

// ClaudeNarrator renders scenes with the Anthropic Messages API. Failures
// are reported to the caller, which is expected to fall back to a
// TemplateNarrator rather than block combat on narration.
type ClaudeNarrator struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
	logger    *zap.Logger
}

// NewClaudeNarrator creates a narrator against the Anthropic API.
//
// Precondition: apiKey and model must be non-empty.
func NewClaudeNarrator(apiKey, model string, maxTokens int64, timeout time.Duration, logger *zap.Logger) *ClaudeNarrator {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ClaudeNarrator{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    logger,
	}
}

// Narrate renders the scene via the model. The request is bounded by the
// configured timeout so a slow API call cannot stall the turn pipeline.
func (n *ClaudeNarrator) Narrate(ctx context.Context, s Scene) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	msg, err := n.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     n.model,
		MaxTokens: n.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(scenePrompt(s))),
		},
	})
	if err != nil {
		n.logger.Warn("narration request failed", zap.Error(err))
		return "", fmt.Errorf("narrator: message request: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("narrator: model returned no text")
	}
	return text, nil
}

func scenePrompt(s Scene) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "phase: %s\n", s.Phase)
	if s.ActorName != "" {
		fmt.Fprintf(&sb, "actor: %s\n", s.ActorName)
	}
	if s.TargetName != "" {
		fmt.Fprintf(&sb, "target: %s\n", s.TargetName)
	}
	if s.AbilityName != "" {
		fmt.Fprintf(&sb, "ability: %s\n", s.AbilityName)
	}
	if s.TargetsHit > 0 {
		fmt.Fprintf(&sb, "area attack striking %d targets\n", s.TargetsHit)
	}
	switch {
	case s.SaveBased && s.Saved:
		sb.WriteString("outcome: target resisted most of the effect\n")
	case s.SaveBased:
		fmt.Fprintf(&sb, "outcome: target failed to resist, took %d damage\n", s.Damage)
	case s.Crit:
		fmt.Fprintf(&sb, "outcome: critical hit for %d damage\n", s.Damage)
	case s.Hit:
		fmt.Fprintf(&sb, "outcome: hit for %d damage\n", s.Damage)
	default:
		sb.WriteString("outcome: attack missed\n")
	}
	if s.TargetDown {
		sb.WriteString("the target was slain by this blow\n")
	}
	if s.Round > 0 {
		fmt.Fprintf(&sb, "round: %d\n", s.Round)
	}
	return sb.String()
}
