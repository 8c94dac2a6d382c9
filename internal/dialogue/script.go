package dialogue

import (
	"context"
	"strings"

	"github.com/coachlingua/leadengine/internal/i18n"
	"github.com/coachlingua/leadengine/internal/model"
)

// ScriptBackend is the offline fallback: a fixed slot-filling script that
// takes each user turn verbatim as the answer to the next slot. It keeps the
// chatbot working when no LLM endpoint is configured.
type ScriptBackend struct{}

// NewScriptBackend creates the scripted fallback backend.
func NewScriptBackend() *ScriptBackend {
	return &ScriptBackend{}
}

// NextTurn fills the slot matching this turn's position in the conversation.
// Slot order: name, email, english level, goal, urgency.
func (b *ScriptBackend) NextTurn(ctx context.Context, lang string, history []model.ChatMessage, message string) (Turn, error) {
	ctx = i18n.WithLang(ctx, lang)

	answers := userMessages(history)
	answers = append(answers, strings.TrimSpace(message))

	switch len(answers) {
	case 1: // name just given
		return Turn{Reply: i18n.Td(ctx, "Chat.AskEmail", map[string]any{"Name": answers[0]})}, nil
	case 2:
		return Turn{Reply: i18n.T(ctx, "Chat.AskLevel")}, nil
	case 3:
		return Turn{Reply: i18n.T(ctx, "Chat.AskGoal")}, nil
	case 4:
		return Turn{Reply: i18n.T(ctx, "Chat.AskUrgency")}, nil
	default:
		return Turn{
			Reply:      i18n.T(ctx, "Chat.Complete"),
			IsComplete: true,
			Collected: &model.CollectedData{
				Name:         answers[0],
				Email:        answers[1],
				EnglishLevel: answers[2],
				Goal:         answers[3],
				Urgency:      answers[4],
			},
		}, nil
	}
}

func userMessages(history []model.ChatMessage) []string {
	var out []string
	for _, m := range history {
		if m.Role == model.RoleUser {
			out = append(out, strings.TrimSpace(m.Content))
		}
	}
	return out
}
