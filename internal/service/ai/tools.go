package ai

import (
	"context"
	"errors"
	"log"
	"strings"

	"medchat/internal/retrieval"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// Retriever is the slice of the retrieval client the agent tool needs.
type Retriever interface {
	Search(ctx context.Context, query string) ([]retrieval.Match, error)
}

type retrieveParams struct {
	Query string `json:"query"`
}

type retrieveTool struct {
	retriever Retriever
}

func newRetrieveTool(r Retriever) (tool.InvokableTool, error) {
	if r == nil {
		return nil, errors.New("retriever required")
	}
	info := &schema.ToolInfo{
		Name: "retrieve_medical_context",
		Desc: "Retrieve relevant medical information from the knowledge base.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Desc:     "Natural language question to look up in the medical knowledge base",
				Type:     schema.String,
				Required: true,
			},
		}),
	}
	rt := &retrieveTool{retriever: r}
	return utils.NewTool(info, rt.run), nil
}

func (rt *retrieveTool) run(ctx context.Context, params *retrieveParams) (string, error) {
	if params == nil {
		return "", errors.New("missing retrieval parameters")
	}
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return "", errors.New("query must not be empty")
	}
	matches, err := rt.retriever.Search(ctx, query)
	if err != nil {
		// the agent can still answer without context; hand it the failure as text
		log.Printf("knowledge base lookup failed: %v", err)
		return "Error accessing knowledge base: " + err.Error(), nil
	}
	return retrieval.Serialize(matches), nil
}
