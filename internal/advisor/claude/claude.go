// Package claude implements the taxonomy and care-plan collaborators on the
// Anthropic Messages API.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/plantcare/internal/advisor"
)

const DefaultModel = "claude-3-5-haiku-latest"

// maxTokens comfortably fits a care plan with a handful of tasks.
const maxTokens = 1024

type ClaudeAdvisor struct {
	client *anthropic.Client
	model  string
}

type Option func(*options)

type options struct {
	baseURL string
}

// WithBaseURL points the client at a different API root, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

func NewClaudeAdvisor(apiKey, model string, opts ...Option) *ClaudeAdvisor {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var clientOpts []anthropic.ClientOption
	if o.baseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(o.baseURL))
	}
	if model == "" {
		model = DefaultModel
	}
	return &ClaudeAdvisor{
		client: anthropic.NewClient(apiKey, clientOpts...),
		model:  model,
	}
}

func (a *ClaudeAdvisor) SuggestTaxonomy(ctx context.Context, name string) ([]advisor.Taxon, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []advisor.Taxon{}, nil
	}
	text, err := a.complete(ctx, advisor.TaxonomyPrompt(name))
	if err != nil {
		return nil, err
	}
	return advisor.ParseTaxa(text), nil
}

func (a *ClaudeAdvisor) CarePlan(ctx context.Context, req advisor.CarePlanRequest) (*advisor.CarePlan, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("care plan needs a plant name")
	}
	text, err := a.complete(ctx, advisor.CarePlanPrompt(req))
	if err != nil {
		return nil, err
	}
	return advisor.ParseCarePlan(text)
}

func (a *ClaudeAdvisor) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(a.model),
		System:    advisor.SystemPrompt,
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText {
			sb.WriteString(c.GetText())
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("claude returned no text")
	}
	return sb.String(), nil
}
