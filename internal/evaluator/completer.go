// Package evaluator implements the external collaborators used by grading:
// LLM-backed subjective evaluation, resume skill extraction and Judge0 code execution.
package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"recruit_backend/internal/config"
)

var ErrNoJSON = errors.New("no JSON object found in model response")

// Completer 单轮文本补全，屏蔽 OpenAI 兼容接口与 Vertex AI 的差异
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// NewCompleter 按 ai.provider 选择实现
func NewCompleter(ctx context.Context, cfg config.AIConfig) (Completer, error) {
	switch cfg.Provider {
	case "", "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("ai.api_key is required for provider openai")
		}
		return NewOpenAICompleter(cfg), nil
	case "vertex":
		return NewVertexCompleter(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}

// decodeJSON 模型偶尔会在 JSON 前后附带解释文字或 markdown 代码块，只取第一个 { 到最后一个 }
func decodeJSON(response string, v interface{}) error {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), v); err != nil {
		return fmt.Errorf("failed to unmarshal model JSON: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
