// Package tagging derives descriptive labels for a document from a bounded
// prefix of its content, using a chat-completion model.
package tagging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// DefaultTagCount is how many labels are requested per document.
	DefaultTagCount = 20

	// DefaultPrefixLimit bounds how much content is sent to the model,
	// in runes. Tagging the whole document would cost more and add
	// nothing: the opening text carries the topic.
	DefaultPrefixLimit = 1000

	// DefaultCallTimeout bounds a single completion call.
	DefaultCallTimeout = 30 * time.Second

	systemPrompt = "You are a helpful assistant that generates relevant tags for a given text. " +
		"Provide the tags as a comma-separated list without numbers or bullet points."
)

// Generator produces tags via chat completion.
type Generator struct {
	client      *openai.Client
	model       openai.ChatModel
	prefixLimit int
	callTimeout time.Duration
}

// NewGenerator creates a tag generator with the given OpenAI client.
// Optional prefixLimit overrides the content bound (defaults to
// DefaultPrefixLimit).
func NewGenerator(client *openai.Client, prefixLimit ...int) *Generator {
	limit := DefaultPrefixLimit
	if len(prefixLimit) > 0 && prefixLimit[0] > 0 {
		limit = prefixLimit[0]
	}
	return &Generator{
		client:      client,
		model:       openai.ChatModelGPT4o,
		prefixLimit: limit,
		callTimeout: DefaultCallTimeout,
	}
}

// Tags requests up to count labels for the text. Only a bounded prefix of
// the content is sent. Transient provider errors retry with exponential
// backoff; the caller decides what an exhausted retry means (the ingestion
// pipeline degrades to an empty tag list).
func (g *Generator) Tags(ctx context.Context, text string, count int) ([]string, error) {
	if count <= 0 {
		count = DefaultTagCount
	}
	prefix := truncateRunes(text, g.prefixLimit)

	prompt := fmt.Sprintf("Generate %d relevant tags for the following text, separated by commas:\n\n%s", count, prefix)

	var content string
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		defer cancel()

		resp, err := g.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(prompt),
			},
			Model: g.model,
		})
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if isTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("completion returned no choices"))
		}
		content = resp.Choices[0].Message.Content
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("tag generation failed: %w", err)
	}

	return ParseTags(content, count), nil
}

// ParseTags splits a comma-separated model response into clean labels,
// dropping empties and capping at count. Order is preserved as returned
// by the model.
func ParseTags(content string, count int) []string {
	parts := strings.Split(content, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		tag = strings.Trim(tag, ".")
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == count {
			break
		}
	}
	return tags
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

// truncateRunes cuts text to at most limit runes without splitting a
// multibyte sequence.
func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
