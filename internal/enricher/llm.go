package enricher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"postovik/internal/config"
	"postovik/internal/domain"
	"postovik/internal/models"

	"github.com/rs/zerolog"
)

const defaultPrompt = "Напиши короткую подпись для поста в Telegram-канале по заголовку и тексту статьи. " +
	"Без хэштегов и ссылок, до трех предложений."

// LLMEnricher запрашивает подпись у OpenAI-совместимого чат-эндпоинта.
// Любой сбой провайдера деградирует до шаблонной подписи: движок
// синхронизации всегда получает непустой текст.
type LLMEnricher struct {
	cfg      config.LLMConfig
	client   *http.Client
	fallback domain.Enricher
	logger   *zerolog.Logger
}

func NewLLMEnricher(cfg config.LLMConfig, fallback domain.Enricher, logger *zerolog.Logger) *LLMEnricher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = models.DefaultCallTimeoutSeconds * time.Second
	}
	if cfg.Prompt == "" {
		cfg.Prompt = defaultPrompt
	}

	return &LLMEnricher{
		cfg:      cfg,
		client:   &http.Client{Timeout: timeout},
		fallback: fallback,
		logger:   logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (e *LLMEnricher) Enrich(ctx context.Context, item models.FeedItem) string {
	caption, err := e.complete(ctx, item)
	if err != nil {
		e.logger.Warn().Err(err).Str("post_id", item.ID).Msg("LLM enrichment failed, using template caption")
		return e.fallback.Enrich(ctx, item)
	}
	return caption
}

func (e *LLMEnricher) complete(ctx context.Context, item models.FeedItem) (string, error) {
	body := chatRequest{
		Model: e.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: e.cfg.Prompt},
			{Role: "user", Content: item.Title + "\n\n" + Excerpt(item.BodyHTML, 2000)},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm provider returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm provider returned no choices")
	}

	caption := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if caption == "" {
		return "", fmt.Errorf("llm provider returned empty caption")
	}
	return caption, nil
}
