package test

import (
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
)

// NewGeminiClient builds a live Gemini client, skipping the test when credentials are absent.
func NewGeminiClient(t *testing.T) gollem.LLMClient {
	vars := NewEnvVars(t, "TEST_GEMINI_PROJECT_ID", "TEST_GEMINI_LOCATION")

	client, err := gemini.New(t.Context(), vars.Get("TEST_GEMINI_PROJECT_ID"), vars.Get("TEST_GEMINI_LOCATION"))
	if err != nil {
		t.Fatalf("failed to create gemini client: %v", err)
	}
	return client
}
