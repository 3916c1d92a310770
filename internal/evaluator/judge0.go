package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"recruit_backend/internal/config"
	"recruit_backend/internal/grading"
	"recruit_backend/internal/model"
)

// Judge0 status ids
const (
	judge0Accepted      = 3
	judge0InternalError = 13
	judge0ExecFormatErr = 14
)

// Judge0Executor 实现 grading.CodeExecutor，每个测试用例提交一次（wait=true 同步等待结果）
type Judge0Executor struct {
	cfg    config.Judge0Config
	client *http.Client
}

func NewJudge0Executor(cfg config.Judge0Config) *Judge0Executor {
	return &Judge0Executor{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type judge0Submission struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

type judge0Result struct {
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Message       *string `json:"message"`
	Status        struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

// Execute 编译错误、超时、运行时错误属于候选人代码问题，计为用例失败；
// 只有 Judge0 自身故障（网络、非 2xx、Internal Error）才返回 error
func (e *Judge0Executor) Execute(ctx context.Context, code string, languageID int, tests []model.TestCase) ([]grading.TestResult, error) {
	results := make([]grading.TestResult, 0, len(tests))
	for i, tc := range tests {
		res, err := e.submit(ctx, judge0Submission{
			SourceCode:     code,
			LanguageID:     languageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		})
		if err != nil {
			return nil, fmt.Errorf("test case %d: %w", i+1, err)
		}
		switch res.Status.ID {
		case judge0InternalError, judge0ExecFormatErr:
			return nil, fmt.Errorf("test case %d: judge0 %s: %s", i+1, res.Status.Description, deref(res.Message))
		case judge0Accepted:
			results = append(results, grading.TestResult{Passed: true, Detail: res.Status.Description})
		default:
			detail := res.Status.Description
			if out := firstNonEmpty(deref(res.CompileOutput), deref(res.Stderr)); out != "" {
				detail += ": " + truncate(out, 300)
			}
			results = append(results, grading.TestResult{Passed: false, Detail: detail})
		}
	}
	return results, nil
}

func (e *Judge0Executor) submit(ctx context.Context, sub judge0Submission) (*judge0Result, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(e.cfg.URL, "/") + "/submissions?base64_encoded=false&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", e.cfg.APIKey)
	}
	if e.cfg.Host != "" {
		req.Header.Set("X-RapidAPI-Host", e.cfg.Host)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("judge0 API error (status %d): %s", resp.StatusCode, truncate(string(data), 300))
	}

	var result judge0Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("invalid judge0 response: %w", err)
	}
	return &result, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
