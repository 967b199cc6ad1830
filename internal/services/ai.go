package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/kanban-board-api/internal/models"
)

type AIService struct {
	client *openai.Client
}

type GeneratedTask struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// NewAIServiceWithBaseURL creates an AIService talking to an OpenAI
// compatible endpoint other than the default one.
func NewAIServiceWithBaseURL(apiKey, baseURL string) *AIService {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
	}
}

// GenerateTasksFromText analyzes text and extracts tasks using OpenAI GPT
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := time.Now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(`You are a task extraction assistant for a kanban board. Extract concrete, actionable tasks from the text below.

Current time: %s

Text:
%s

Return a JSON array of the extracted tasks in this shape:
[
  {
    "title": "short task title",
    "description": "details of the task",
    "priority": "Low, Normal or High",
    "due_date": "deadline in ISO8601, e.g. 2025-10-28T23:59:59Z, or null when none is stated"
  }
]

Rules:
- Return [] when the text contains no tasks
- Convert relative expressions ("tomorrow", "next week") into concrete dates
- due_date must be an ISO8601 string or null
- Return only JSON, without any explanation`, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

// parseGeneratedTasks decodes the model output, tolerating a fenced code block.
func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}
