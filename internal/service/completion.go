package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/payoutpilot/mentorchat/internal/config"
	"github.com/payoutpilot/mentorchat/internal/domain"
)

var (
	ErrNoMessages = errors.New("conversation has no usable messages")
	ErrUpstream   = errors.New("completion upstream failed")
)

// systemPrompt steers the assistant as the PayoutPilot mentor helper. It is
// prepended to every forwarded conversation.
const systemPrompt = `You are PayoutPilot Mentor Assistant — a friendly, professional AI specialized in helping EdTech mentors use the PayoutPilot platform to track and manage their earnings. Give clear, concise explanations of session history, payout breakdowns (including custom rates, fees, and taxes), receipt downloads, payment status, and dispute processes. Provide step-by-step instructions when mentors ask "how do I...?", use bullet points when listing steps, and keep the tone upbeat and reassuring. If data isn't available, explain next steps (e.g. contacting support via chat).`

const defaultModel = "gpt-3.5-turbo"

// CompletionService forwards a conversation to an OpenAI-compatible
// chat-completions endpoint and returns the assistant reply. Without a
// configured API key it answers locally with an echo of the last user
// message, so development environments work offline.
type CompletionService struct {
	conf   *config.CompletionConfig
	client *http.Client
}

func NewCompletionService(conf *config.CompletionConfig) *CompletionService {
	timeout := time.Duration(conf.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &CompletionService{
		conf:   conf,
		client: &http.Client{Timeout: timeout},
	}
}

type completionRequest struct {
	Model    string                     `json:"model"`
	Messages []domain.CompletionMessage `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sanitises the conversation, prepends the system prompt and
// returns the assistant reply.
func (s *CompletionService) Complete(ctx context.Context, messages []domain.CompletionMessage, model string) (string, error) {
	sanitized := make([]domain.CompletionMessage, 0, len(messages)+1)
	sanitized = append(sanitized, domain.CompletionMessage{Role: "system", Content: systemPrompt})

	lastUser := ""
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		sanitized = append(sanitized, m)
		if m.Role == "user" {
			lastUser = m.Content
		}
	}
	if len(sanitized) == 1 {
		return "", ErrNoMessages
	}

	if s.conf.APIKey == "" {
		return fmt.Sprintf("Echo (no API key configured): %v", lastUser), nil
	}

	if model == "" {
		model = s.conf.Model
	}
	if model == "" {
		model = defaultModel
	}

	reply, err := s.call(ctx, completionRequest{Model: model, Messages: sanitized})
	if err != nil {
		return "", fmt.Errorf("s.call -> %w", err)
	}

	return reply, nil
}

func (s *CompletionService) call(ctx context.Context, reqBody completionRequest) (string, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("json.Marshal -> %w", err)
	}

	url := strings.TrimSuffix(s.conf.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.conf.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w -> %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w -> %v", ErrUpstream, err)
	}

	var parsed completionResponse
	if err = json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w -> unexpected response body", ErrUpstream)
	}

	if resp.StatusCode != http.StatusOK {
		msg := "completion API error"
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%w -> %v (status %d)", ErrUpstream, msg, resp.StatusCode)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w -> empty response", ErrUpstream)
	}

	reply := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%w -> empty reply", ErrUpstream)
	}

	return reply, nil
}
