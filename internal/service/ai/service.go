package ai

import (
	"context"
	"errors"
	"fmt"

	"medchat/internal/config"
	"medchat/internal/models"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const systemPrompt = "You are a knowledgeable and empathetic medical information assistant. " +
	"Always call the knowledge-base retrieval tool before answering and base your response on the retrieved documents. " +
	"Structure answers with short sections and bullet points, explain medical terms in plain language, and cite sources when the retrieved context names them. " +
	"If the retrieved context is insufficient, say so instead of inventing facts. " +
	"Never give a diagnosis or a personal treatment plan; remind the user that this is educational information and urgent symptoms need immediate professional care."

// Service answers questions with a provider chat model, grounding every
// reply in knowledge-base retrieval through a react agent.
type Service struct {
	chatModel model.ToolCallingChatModel
	agent     *react.Agent
}

// NewService builds the chat model for the configured provider and wraps it
// in a react agent whose only tool is knowledge-base retrieval. A nil
// retriever degrades to the bare model (no tool calls).
func NewService(ctx context.Context, cfg *config.Config, provider, modelName string, retriever Retriever) (*Service, error) {
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}
	if provCfg.APIKey == "" {
		return nil, fmt.Errorf("provider %s has no api_key", provider)
	}
	if modelName == "" {
		modelName = provCfg.Model
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   modelName,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{APIKey: provCfg.APIKey})
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     modelName,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}

	var reactAgent *react.Agent
	if retriever != nil {
		retrieveTool, err := newRetrieveTool(retriever)
		if err != nil {
			return nil, fmt.Errorf("init retrieve tool: %w", err)
		}
		reactAgent, err = react.NewAgent(ctx, &react.AgentConfig{
			ToolCallingModel: chatModel,
			ToolsConfig: compose.ToolsNodeConfig{
				Tools: []tool.BaseTool{retrieveTool},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("init react agent: %w", err)
		}
	}

	return &Service{chatModel: chatModel, agent: reactAgent}, nil
}

// Respond generates the assistant's reply to question given the prior
// conversation. The question must already be the trimmed user text.
func (s *Service) Respond(ctx context.Context, question string, prevHistory []*models.Message) (string, error) {
	if question == "" {
		return "", errors.New("question cannot be empty")
	}

	messages := make([]*schema.Message, 0, len(prevHistory)+2)
	messages = append(messages, &schema.Message{Role: schema.System, Content: systemPrompt})
	for _, msg := range prevHistory {
		messages = append(messages, convertMessage(msg))
	}
	messages = append(messages, &schema.Message{Role: schema.User, Content: question})

	var (
		resp *schema.Message
		err  error
	)
	if s.agent != nil {
		resp, err = s.agent.Generate(ctx, messages)
	} else {
		resp, err = s.chatModel.Generate(ctx, messages)
	}
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	if resp == nil || resp.Content == "" {
		return "", errors.New("model returned no content")
	}
	return resp.Content, nil
}

func convertMessage(msg *models.Message) *schema.Message {
	role := schema.User
	switch msg.Role {
	case models.RoleAssistant:
		role = schema.Assistant
	case models.RoleSystem:
		role = schema.System
	}
	return &schema.Message{Role: role, Content: msg.Content}
}
