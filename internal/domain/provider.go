// Package domain defines core business entities and value objects for SHAI.
//
// This file contains backend provider definitions used throughout the application.
// The domain layer is independent of infrastructure concerns and represents pure
// business logic and data structures.
package domain

import (
	"fmt"
	"strings"
)

// ProviderKind names one of the interchangeable text-generation backends.
type ProviderKind string

const (
	ProviderLocal  ProviderKind = "local"
	ProviderOpenAI ProviderKind = "openai"
	ProviderGemini ProviderKind = "gemini"
)

// ParseProviderKind accepts the configured provider name, including the
// "openaiLike"/"geminiLike" spellings.
func ParseProviderKind(value string) (ProviderKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "local", "ollama":
		return ProviderLocal, nil
	case "openai", "openailike", "openai-like":
		return ProviderOpenAI, nil
	case "gemini", "geminilike", "gemini-like", "google":
		return ProviderGemini, nil
	default:
		return "", fmt.Errorf("unsupported provider %q (want local, openai or gemini)", value)
	}
}

// ProviderConfig describes the selected backend. Consumed, never mutated, by the core.
type ProviderConfig struct {
	Name       string          `yaml:"name"`
	APIKey     string          `yaml:"api_key,omitempty"`
	AuthEnvVar string          `yaml:"auth_env_var,omitempty"`
	OrgEnvVar  string          `yaml:"org_env_var,omitempty"`
	Model      string          `yaml:"model"`
	Endpoint   string          `yaml:"endpoint,omitempty"`
	MaxTokens  int             `yaml:"max_tokens,omitempty"`
	Prompt     []PromptMessage `yaml:"prompt,omitempty"`
	APIFormat  APIFormat       `yaml:"api_format,omitempty"`
}

// LocalEngineConfig points at the locally hosted inference server.
type LocalEngineConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	KeepAlive string `yaml:"keep_alive"`
	StateFile string `yaml:"state_file,omitempty"`
}

// APIFormat defines how to construct requests and parse responses for OpenAI-like APIs.
// All fields are optional with sensible defaults (OpenAI-compatible format).
type APIFormat struct {
	// AuthHeaderName specifies the HTTP header name for authentication.
	// Default: "Authorization"
	AuthHeaderName string `yaml:"auth_header_name,omitempty"`

	// AuthHeaderPrefix is prepended to the API key value.
	// Default: "Bearer " (with trailing space)
	AuthHeaderPrefix string `yaml:"auth_header_prefix,omitempty"`

	// ResponseJSONPath specifies where to extract the generated text from the response.
	// Default: "choices[0].message.content"
	ResponseJSONPath string `yaml:"response_json_path,omitempty"`

	// ExtraHeaders contains additional HTTP headers to send with each request.
	ExtraHeaders map[string]string `yaml:"extra_headers,omitempty"`
}

// PromptMessage follows the role/content pair required by most chat APIs.
type PromptMessage struct {
	Role    string `yaml:"role"`
	Content string `yaml:"content"`
}

const (
	DefaultAuthHeaderName   = "Authorization"
	DefaultAuthHeaderPrefix = "Bearer "
	DefaultResponsePath     = "choices[0].message.content"
)

// GetAuthHeaderName returns the authentication header name with default fallback.
func (f APIFormat) GetAuthHeaderName() string {
	if f.AuthHeaderName == "" {
		return DefaultAuthHeaderName
	}
	return f.AuthHeaderName
}

// GetAuthHeaderPrefix returns the authentication header prefix with default fallback.
// A custom header name with an empty prefix means "no prefix".
func (f APIFormat) GetAuthHeaderPrefix() string {
	if f.AuthHeaderName != "" && f.AuthHeaderPrefix == "" {
		return ""
	}
	if f.AuthHeaderPrefix == "" {
		return DefaultAuthHeaderPrefix
	}
	return f.AuthHeaderPrefix
}

// GetResponseJSONPath returns the JSON path for extracting response content with default fallback.
func (f APIFormat) GetResponseJSONPath() string {
	if f.ResponseJSONPath == "" {
		return DefaultResponsePath
	}
	return f.ResponseJSONPath
}
