package openai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/JulesLiu390/PetGPT-sub001/pkg/llm"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	adapter, err := New(llm.NewAdapterConfig())
	require.NoError(t, err)
	return adapter.(*Adapter)
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		override string
		want     string
	}{
		{"provider default", "openai", "", "https://api.openai.com/v1"},
		{"default sentinel", "grok", "default", "https://api.x.ai/v1"},
		{"deepseek default", "deepseek", "", "https://api.deepseek.com/v1"},
		{"openrouter default", "openrouter", "", "https://openrouter.ai/api/v1"},
		{"local default", "local", "", "http://localhost:11434/v1"},
		{"unknown provider falls back", "mystery", "", "https://api.openai.com/v1"},
		{"override without version", "openai", "https://proxy.corp.example", "https://proxy.corp.example/v1"},
		{"override already versioned", "openai", "https://proxy.corp.example/v1", "https://proxy.corp.example/v1"},
		{"trailing slash stripped", "openai", "https://proxy.corp.example/v1/", "https://proxy.corp.example/v1"},
		// "/v1" must terminate the URL; appearing mid-path is not enough
		{"v1 in middle of path", "openai", "https://proxy.example/v1/extra", "https://proxy.example/v1/extra/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveBaseURL(tt.provider, tt.override))
		})
	}
}

func TestBuildRequestBasics(t *testing.T) {
	adapter := newTestAdapter(t)

	env, err := adapter.BuildRequest(context.Background(), &llm.ProviderRequest{
		Model:    "gpt-4o",
		Provider: "openai",
		APIKey:   "sk-test",
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, "be brief"),
			llm.NewTextMessage(llm.RoleUser, "hello"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "https://api.openai.com/v1/chat/completions", env.Endpoint)
	assert.Equal(t, "Bearer sk-test", env.Headers["Authorization"])

	body := gjson.ParseBytes(env.Body)
	assert.Equal(t, "gpt-4o", body.Get("model").String())
	// Stream is always explicit, never omitted
	assert.True(t, body.Get("stream").Exists())
	assert.False(t, body.Get("stream").Bool())
	// Unset sampling knobs stay off the wire
	assert.False(t, body.Get("temperature").Exists())
	assert.False(t, body.Get("max_tokens").Exists())

	// Single text part collapses to the plain string form
	assert.Equal(t, "hello", body.Get("messages.1.content").String())
	assert.Equal(t, "system", body.Get("messages.0.role").String())
}

func TestBuildRequestDegradesUnsupportedAttachments(t *testing.T) {
	adapter := newTestAdapter(t)

	env, err := adapter.BuildRequest(context.Background(), &llm.ProviderRequest{
		Model:    "gpt-4o",
		Provider: "openai",
		Messages: []llm.Message{{
			Role: llm.RoleUser,
			Content: []llm.MessageContent{
				llm.NewTextContent("watch this"),
				llm.NewVideoContent("/media/clip.mp4", "", "clip.mp4"),
				llm.NewAudioContent("/media/note.mp3", "", "note.mp3"),
			},
		}},
	})
	require.NoError(t, err)

	body := gjson.ParseBytes(env.Body)
	parts := body.Get("messages.0.content").Array()
	require.Len(t, parts, 3)
	assert.Equal(t, "[Attachment: clip.mp4 (video/mp4)]", parts[1].Get("text").String())
	assert.Equal(t, "[Attachment: note.mp3 (audio/mpeg)]", parts[2].Get("text").String())
}

func TestBuildRequestPassesDataURIImages(t *testing.T) {
	adapter := newTestAdapter(t)
	uri := llm.EncodeDataURI("image/png", []byte{1, 2, 3})

	env, err := adapter.BuildRequest(context.Background(), &llm.ProviderRequest{
		Model:    "gpt-4o",
		Provider: "openai",
		Messages: []llm.Message{{
			Role: llm.RoleUser,
			Content: []llm.MessageContent{
				llm.NewTextContent("what is this"),
				llm.NewImageContent(uri, "image/png"),
			},
		}},
	})
	require.NoError(t, err)

	body := gjson.ParseBytes(env.Body)
	assert.Equal(t, uri, body.Get("messages.0.content.1.image_url.url").String())
}

func TestBuildRequestUnreadableImageDegrades(t *testing.T) {
	adapter := newTestAdapter(t)

	env, err := adapter.BuildRequest(context.Background(), &llm.ProviderRequest{
		Model:    "gpt-4o",
		Provider: "openai",
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: []llm.MessageContent{llm.NewImageContent("/does/not/exist.png", "")},
		}},
	})
	require.NoError(t, err)

	content := gjson.GetBytes(env.Body, "messages.0.content").String()
	assert.True(t, strings.HasPrefix(content, "[Attachment:"))
}

func TestBuildRequestEmptyMessageGetsPlaceholder(t *testing.T) {
	adapter := newTestAdapter(t)

	env, err := adapter.BuildRequest(context.Background(), &llm.ProviderRequest{
		Model:    "gpt-4o",
		Provider: "openai",
		Messages: []llm.Message{{Role: llm.RoleUser}},
	})
	require.NoError(t, err)
	assert.Equal(t, " ", gjson.GetBytes(env.Body, "messages.0.content").String())
}

func TestBuildRequestTools(t *testing.T) {
	adapter := newTestAdapter(t)

	params := map[string]any{
		"type":       "object",
		"properties": map[string]any{"city": map[string]any{"type": "string"}},
	}
	env, err := adapter.BuildRequest(context.Background(), &llm.ProviderRequest{
		Model:    "gpt-4o",
		Provider: "openai",
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "weather?")},
		Tools:    []llm.Tool{llm.NewFunctionTool("get_weather", "look up weather", params)},
	})
	require.NoError(t, err)

	body := gjson.ParseBytes(env.Body)
	assert.Equal(t, "get_weather", body.Get("tools.0.function.name").String())
	assert.Equal(t, "auto", body.Get("tool_choice").String())
}

func TestBuildRequestStrictSchema(t *testing.T) {
	adapter := newTestAdapter(t)

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"nested": map[string]any{
				"type":       "object",
				"properties": map[string]any{"value": map[string]any{"type": "string"}},
			},
		},
	}
	env, err := adapter.BuildRequest(context.Background(), &llm.ProviderRequest{
		Model:    "gpt-4o",
		Provider: "openai",
		Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "extract")},
		Format:   llm.NewJSONSchemaResponseFormat("extraction", "", schema),
	})
	require.NoError(t, err)

	format := gjson.GetBytes(env.Body, "response_format")
	assert.Equal(t, "json_schema", format.Get("type").String())
	assert.True(t, format.Get("json_schema.strict").Bool())
	// Every object level gets closed, including nested ones
	assert.False(t, format.Get("json_schema.schema.additionalProperties").Bool())
	assert.True(t, format.Get("json_schema.schema.additionalProperties").Exists())
	assert.True(t, format.Get("json_schema.schema.properties.nested.additionalProperties").Exists())
}

func TestBuildRequestToolHistory(t *testing.T) {
	adapter := newTestAdapter(t)

	assistant := llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{
			{ID: "call-1", Name: "get_weather", Arguments: map[string]any{"city": "Oslo"}},
		},
	}
	tool := llm.NewTextMessage(llm.RoleTool, `{"temp": -4}`)
	tool.ToolCallID = "call-1"

	env, err := adapter.BuildRequest(context.Background(), &llm.ProviderRequest{
		Model:    "gpt-4o",
		Provider: "openai",
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleUser, "weather in Oslo?"),
			assistant,
			tool,
		},
	})
	require.NoError(t, err)

	body := gjson.ParseBytes(env.Body)
	assert.Equal(t, "call-1", body.Get("messages.1.tool_calls.0.id").String())
	assert.JSONEq(t, `{"city":"Oslo"}`, body.Get("messages.1.tool_calls.0.function.arguments").String())
	assert.Equal(t, "tool", body.Get("messages.2.role").String())
	assert.Equal(t, "call-1", body.Get("messages.2.tool_call_id").String())
}

func TestBuildRequestRequiresModel(t *testing.T) {
	adapter := newTestAdapter(t)
	_, err := adapter.BuildRequest(context.Background(), &llm.ProviderRequest{Provider: "openai"})
	assert.Error(t, err)
}
