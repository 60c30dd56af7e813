package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"llmpoold/pkg/types"
)

// llamaServerModel talks to an OpenAI-compatible llama.cpp server. Options:
//
//	base_url:       server URL, e.g. http://127.0.0.1:30001 (required)
//	api_key:        bearer token, if the server requires one
//	max_tokens:     completion cap
//	temperature:    sampling temperature
//	request_timeout_ms: per-generation HTTP deadline (default 120s)
type llamaServerModel struct {
	baseURL     string
	apiKey      string
	modelPath   string
	maxTokens   int
	temperature float64
	reqTimeout  time.Duration
	httpClient  *http.Client
}

func newLlamaServerModel(cfg types.WorkerConfig) (*llamaServerModel, error) {
	baseURL := strings.TrimRight(optString(cfg.Options, "base_url", ""), "/")
	if baseURL == "" {
		return nil, errors.New("llamaserver backend: missing base_url option")
	}
	reqTimeout := time.Duration(optInt(cfg.Options, "request_timeout_ms", 120_000)) * time.Millisecond
	// Timeout stays 0 on the client: the per-request deadline is carried by
	// the request context so that streaming reads are not cut mid-body.
	return &llamaServerModel{
		baseURL:     baseURL,
		apiKey:      optString(cfg.Options, "api_key", ""),
		modelPath:   cfg.ModelPath,
		maxTokens:   optInt(cfg.Options, "max_tokens", 0),
		temperature: optFloat(cfg.Options, "temperature", 0),
		reqTimeout:  reqTimeout,
		httpClient:  &http.Client{Timeout: 0},
	}, nil
}

// completionRequest is the payload for /v1/completions.
type completionRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	Stream      bool    `json:"stream"`
}

// streamChoice is a minimal subset of the OpenAI streaming response.
type streamChoice struct {
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type streamResponse struct {
	Object  string         `json:"object"`
	Choices []streamChoice `json:"choices"`
}

func (m *llamaServerModel) Generate(prompt string) (types.Generation, error) {
	payload := completionRequest{
		Model:       m.modelPath,
		Prompt:      prompt,
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
		Stream:      true,
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, m.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return types.Generation{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}
	if m.reqTimeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), m.reqTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return types.Generation{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return types.Generation{}, fmt.Errorf("llama server http error: %s: %s", resp.Status, string(b))
	}

	var content strings.Builder
	var finish string
	r := bufio.NewReader(resp.Body)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			l := strings.TrimSpace(line)
			if l != "" && strings.HasPrefix(strings.ToLower(l), "data:") {
				data := strings.TrimSpace(l[len("data:"):])
				if data == "[DONE]" {
					break
				}
				var msg streamResponse
				if e := json.Unmarshal([]byte(data), &msg); e == nil && len(msg.Choices) > 0 {
					if frag := msg.Choices[0].Delta.Content; frag != "" {
						content.WriteString(frag)
					} else if msg.Choices[0].Text != "" {
						// Non-chat completion endpoints stream "text".
						content.WriteString(msg.Choices[0].Text)
					}
					if fr := msg.Choices[0].FinishReason; fr != "" {
						finish = fr
					}
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return types.Generation{}, err
		}
	}
	return types.Generation{Content: content.String(), FinishReason: finish}, nil
}
