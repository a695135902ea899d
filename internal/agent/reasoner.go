package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
)

// DefaultMaxSteps bounds the model/tool round trips of one turn
const DefaultMaxSteps = 12

// EinoReasoner runs a ReAct agent over a tool-calling chat model
type EinoReasoner struct {
	model    model.ToolCallingChatModel
	maxSteps int

	mu     sync.Mutex
	agents map[string]*react.Agent
}

// NewEinoReasoner creates a reasoner over chatModel
func NewEinoReasoner(chatModel model.ToolCallingChatModel, maxSteps int) *EinoReasoner {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &EinoReasoner{
		model:    chatModel,
		maxSteps: maxSteps,
		agents:   make(map[string]*react.Agent),
	}
}

// Reason runs one turn. A tool failure aborts the turn with an error.
func (r *EinoReasoner) Reason(ctx context.Context, systemPrompt, userMessage string, tools []*Tool) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userMessage),
	}

	var reply *schema.Message
	if len(tools) == 0 {
		var err error
		reply, err = r.model.Generate(ctx, messages)
		if err != nil {
			return "", fmt.Errorf("model generate failed: %w", err)
		}
	} else {
		agent, err := r.agentFor(ctx, tools)
		if err != nil {
			return "", err
		}
		reply, err = agent.Generate(ctx, messages)
		if err != nil {
			return "", fmt.Errorf("agent generate failed: %w", err)
		}
	}

	if reply == nil {
		return "", errors.New("reasoning engine returned no message")
	}
	return reply.Content, nil
}

// agentFor returns the agent for a tool set, building it on first use.
// Sessions never change their tool set, so one agent per set suffices.
func (r *EinoReasoner) agentFor(ctx context.Context, tools []*Tool) (*react.Agent, error) {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	key := strings.Join(names, ",")

	r.mu.Lock()
	defer r.mu.Unlock()

	if agent, ok := r.agents[key]; ok {
		return agent, nil
	}

	baseTools := make([]tool.BaseTool, len(tools))
	for i, t := range tools {
		baseTools[i] = &einoTool{tool: t}
	}

	agent, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: r.model,
		ToolsConfig:      compose.ToolsNodeConfig{Tools: baseTools},
		MaxStep:          r.maxSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	r.agents[key] = agent
	return agent, nil
}

// einoTool exposes a Tool as an eino invokable tool
type einoTool struct {
	tool *Tool
}

func (e *einoTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        e.tool.Name(),
		Desc:        e.tool.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(toParameterInfo(e.tool.InputSchema())),
	}, nil
}

func (e *einoTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	return e.tool.Invoke(ctx, argumentsInJSON)
}

// toParameterInfo converts the flat object schemas used by the tool set
func toParameterInfo(inputSchema map[string]interface{}) map[string]*schema.ParameterInfo {
	required := map[string]bool{}
	if names, ok := inputSchema["required"].([]string); ok {
		for _, name := range names {
			required[name] = true
		}
	}

	params := map[string]*schema.ParameterInfo{}
	properties, _ := inputSchema["properties"].(map[string]interface{})
	for name, raw := range properties {
		prop, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		desc, _ := prop["description"].(string)
		params[name] = &schema.ParameterInfo{
			Type:     dataType(prop["type"]),
			Desc:     desc,
			Required: required[name],
		}
	}
	return params
}

func dataType(v interface{}) schema.DataType {
	switch v {
	case "integer":
		return schema.Integer
	case "number":
		return schema.Number
	case "boolean":
		return schema.Boolean
	case "array":
		return schema.Array
	case "object":
		return schema.Object
	default:
		return schema.String
	}
}
