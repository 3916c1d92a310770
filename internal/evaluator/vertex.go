package evaluator

import (
	"context"
	"fmt"
	"strings"

	"recruit_backend/internal/config"

	"cloud.google.com/go/vertexai/genai"
)

// VertexCompleter wraps the Vertex AI Gemini API.
type VertexCompleter struct {
	client    *genai.Client
	modelName string
}

func NewVertexCompleter(ctx context.Context, cfg config.AIConfig) (*VertexCompleter, error) {
	if cfg.VertexProject == "" {
		return nil, fmt.Errorf("ai.vertex_project (GOOGLE_CLOUD_PROJECT) not set")
	}
	location := cfg.VertexLocation
	if location == "" {
		location = "us-central1"
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, cfg.VertexProject, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}
	return &VertexCompleter{client: client, modelName: modelName}, nil
}

func (v *VertexCompleter) Name() string {
	return "vertex:" + v.modelName
}

func (v *VertexCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	model := v.client.GenerativeModel(v.modelName)
	// 低温度，评分更稳定
	model.SetTemperature(0.2)
	model.SetTopK(40)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(2048)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

func (v *VertexCompleter) Close() error {
	return v.client.Close()
}
