package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coachlingua/leadengine/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend drives the conversation through an OpenAI-compatible API.
type OpenAIBackend struct {
	api   *openai.Client
	model string
}

// NewOpenAIBackend creates a backend for an OpenAI-compatible endpoint.
func NewOpenAIBackend(baseURL, apiKey, modelName string) *OpenAIBackend {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIBackend{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable.
func (b *OpenAIBackend) Ping(ctx context.Context) error {
	if _, err := b.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint unreachable: %w", err)
	}
	return nil
}

// backendResponse is the JSON object the model is instructed to return.
type backendResponse struct {
	Reply         string              `json:"reply"`
	IsComplete    bool                `json:"is_complete"`
	CollectedData model.CollectedData `json:"collected_data"`
}

// NextTurn forwards the conversation to the LLM and parses its structured
// reply.
func (b *OpenAIBackend) NextTurn(ctx context.Context, lang string, history []model.ChatMessage, message string) (Turn, error) {
	chatMsgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(lang)},
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == model.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}
	chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := b.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    b.model,
		Messages: chatMsgs,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return Turn{}, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Turn{}, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var parsed backendResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Turn{}, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}

	turn := Turn{Reply: parsed.Reply, IsComplete: parsed.IsComplete}
	if parsed.IsComplete {
		collected := parsed.CollectedData
		turn.Collected = &collected
	}
	return turn, nil
}

func buildSystemPrompt(lang string) string {
	language := "Italian"
	if strings.HasPrefix(strings.ToLower(lang), "en") {
		language = "English"
	}

	var sb strings.Builder
	sb.WriteString("You are the friendly assistant of CoachLingua, an English coaching service. ")
	sb.WriteString("Reply in " + language + ".\n\n")
	sb.WriteString("Your ONLY job is to collect, one question at a time, in this order:\n")
	sb.WriteString("1. name\n2. email\n3. current English level\n4. main goal\n5. urgency (when they want to start)\n\n")
	sb.WriteString("RULES:\n")
	sb.WriteString("- Ask for exactly one missing item per turn, acknowledging the user's answer briefly.\n")
	sb.WriteString("- Never give pricing, lesson content, or advice; redirect politely to the data you still need.\n")
	sb.WriteString("- When all five items are collected, set is_complete to true and invite the user to continue on WhatsApp.\n")
	sb.WriteString("\nRespond ONLY with a JSON object with these fields:\n")
	sb.WriteString(`{"reply": "<your message>", "is_complete": <true/false>, "collected_data": {"name": "", "email": "", "english_level": "", "goal": "", "urgency": ""}}`)
	sb.WriteString("\n")
	return sb.String()
}
