package evaluator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"recruit_backend/internal/config"
	"recruit_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeCompleter) Name() string { return "fake" }

func TestLLMTextEvaluator_ParsesWrappedJSON(t *testing.T) {
	fc := &fakeCompleter{response: "Here is my grading:\n```json\n" +
		`{"score": 7.5, "feedback": "solid", "strengths": ["clear"], "improvements": ["depth"], "confidence": 0.8}` +
		"\n```"}
	ev := NewLLMTextEvaluator(fc)

	q := model.Question{ID: "q1", Type: model.QuestionSubjective, Prompt: "Explain CAP", Rubric: "mention partitions", Points: 10}
	got, err := ev.EvaluateText(context.Background(), q, "consistency, availability...")
	require.NoError(t, err)
	assert.Equal(t, 7.5, got.Score)
	assert.Equal(t, "solid", got.Feedback)
	assert.Equal(t, []string{"clear"}, got.Strengths)
	assert.Equal(t, 0.8, got.Confidence)
	assert.Equal(t, "fake", got.Evaluator)

	require.Len(t, fc.prompts, 1)
	assert.Contains(t, fc.prompts[0], "mention partitions")
	assert.Contains(t, fc.prompts[0], "Explain CAP")
}

func TestLLMTextEvaluator_Errors(t *testing.T) {
	q := model.Question{ID: "q1", Type: model.QuestionSubjective, Points: 10}

	_, err := NewLLMTextEvaluator(&fakeCompleter{response: "I cannot grade this"}).EvaluateText(context.Background(), q, "x")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = NewLLMTextEvaluator(&fakeCompleter{response: `{"feedback": "no score"}`}).EvaluateText(context.Background(), q, "x")
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = NewLLMTextEvaluator(&fakeCompleter{err: boom}).EvaluateText(context.Background(), q, "x")
	assert.ErrorIs(t, err, boom)
}

func TestLLMResumeParser_Dedups(t *testing.T) {
	fc := &fakeCompleter{response: `{"skills": ["Go", "go", " SQL ", ""], "yearsExperience": 4}`}
	profile, err := NewLLMResumeParser(fc).ParseResume(context.Background(), "Go developer, SQL, 4 years")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, profile.Skills)
	assert.Equal(t, 4.0, profile.YearsExperience)

	empty, err := NewLLMResumeParser(fc).ParseResume(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, empty.Skills)
	assert.Len(t, fc.prompts, 1)
}

func TestOpenAICompleter_AgainstCompatibleServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"score\": 3}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAICompleter(config.AIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "test-model"})
	out, err := c.Complete(context.Background(), "system", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"score": 3}`, out)
	assert.Equal(t, "openai:test-model", c.Name())
}

func TestNewCompleter_UnknownProvider(t *testing.T) {
	_, err := NewCompleter(context.Background(), config.AIConfig{Provider: "mystery"})
	assert.Error(t, err)

	_, err = NewCompleter(context.Background(), config.AIConfig{Provider: "openai"})
	assert.Error(t, err)
}

func judge0Server(t *testing.T, handler func(sub judge0Submission) (int, string)) (*httptest.Server, *int32) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/submissions", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))

		var sub judge0Submission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		code, body := handler(sub)
		w.WriteHeader(code)
		w.Write([]byte(body))
	}))
	return srv, &calls
}

func TestJudge0Executor_PassAndFail(t *testing.T) {
	srv, calls := judge0Server(t, func(sub judge0Submission) (int, string) {
		if sub.Stdin == "1" {
			return http.StatusCreated, `{"stdout":"2\n","status":{"id":3,"description":"Accepted"}}`
		}
		return http.StatusCreated, `{"stdout":"0\n","status":{"id":4,"description":"Wrong Answer"}}`
	})
	defer srv.Close()

	ex := NewJudge0Executor(config.Judge0Config{URL: srv.URL, APIKey: "secret"})
	res, err := ex.Execute(context.Background(), "print(int(input())*2)", 71, []model.TestCase{
		{Input: "1", ExpectedOutput: "2"},
		{Input: "5", ExpectedOutput: "10"},
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.True(t, res[0].Passed)
	assert.False(t, res[1].Passed)
	assert.Equal(t, "Wrong Answer", res[1].Detail)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestJudge0Executor_CompileErrorIsCandidateFailure(t *testing.T) {
	srv, _ := judge0Server(t, func(judge0Submission) (int, string) {
		return http.StatusCreated, `{"compile_output":"syntax error","status":{"id":6,"description":"Compilation Error"}}`
	})
	defer srv.Close()

	res, err := NewJudge0Executor(config.Judge0Config{URL: srv.URL, APIKey: "secret"}).
		Execute(context.Background(), "bad", 71, []model.TestCase{{Input: "1", ExpectedOutput: "1"}})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.False(t, res[0].Passed)
	assert.Contains(t, res[0].Detail, "syntax error")
}

func TestJudge0Executor_InfrastructureFailure(t *testing.T) {
	srv, _ := judge0Server(t, func(judge0Submission) (int, string) {
		return http.StatusCreated, `{"message":"sandbox crashed","status":{"id":13,"description":"Internal Error"}}`
	})
	defer srv.Close()

	_, err := NewJudge0Executor(config.Judge0Config{URL: srv.URL, APIKey: "secret"}).
		Execute(context.Background(), "x", 71, []model.TestCase{{Input: "1", ExpectedOutput: "1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sandbox crashed")

	down, _ := judge0Server(t, func(judge0Submission) (int, string) {
		return http.StatusServiceUnavailable, `overloaded`
	})
	defer down.Close()

	_, err = NewJudge0Executor(config.Judge0Config{URL: down.URL, APIKey: "secret"}).
		Execute(context.Background(), "x", 71, []model.TestCase{{Input: "1", ExpectedOutput: "1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
