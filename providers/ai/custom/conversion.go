package custom

import (
	"fmt"

	"github.com/llmwire/llmwire/internal/utils"
	"github.com/llmwire/llmwire/providers/ai"
)

// toWire converts an ai.Request to a chat-completions request. An empty
// model is left off the wire so the server picks its own default, which is
// how single-model local servers usually run.
func toWire(request ai.Request, model string, stream bool) (chatCompletionRequest, error) {
	wire := chatCompletionRequest{Model: model}

	if request.System != "" {
		wire.Messages = append(wire.Messages, chatMessage{Role: "system", Content: request.System})
	}

	for _, turn := range request.Turns {
		if err := turn.Validate(); err != nil {
			return wire, fmt.Errorf("invalid request: %w", err)
		}
		messages, err := turnToMessages(turn)
		if err != nil {
			return wire, err
		}
		wire.Messages = append(wire.Messages, messages...)
	}

	for _, declaration := range request.Tools {
		wire.Tools = append(wire.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        declaration.Name,
				Description: declaration.Description,
				Parameters:  declaration.Parameters,
			},
		})
	}

	if params := request.Generation; params != nil {
		wire.Temperature = params.Temperature
		wire.TopP = params.TopP
		wire.Stop = params.StopSequences
		if params.MaxOutputTokens > 0 {
			wire.MaxTokens = utils.Ptr(params.MaxOutputTokens)
		}
	}

	if stream {
		wire.Stream = utils.Ptr(true)
		wire.StreamOptions = &streamOptions{IncludeUsage: true}
	}

	return wire, nil
}

// turnToMessages converts one conversation turn. Most turns map to a single
// message; a tool turn expands to one role=tool message per result, each
// correlated to its call id.
func turnToMessages(turn ai.Turn) ([]chatMessage, error) {
	switch turn.Role {
	case ai.RoleSystem:
		return []chatMessage{{Role: "system", Content: textOf(turn.Parts)}}, nil

	case ai.RoleUser:
		content, err := contentOf(turn.Parts)
		if err != nil {
			return nil, err
		}
		return []chatMessage{{Role: "user", Content: content}}, nil

	case ai.RoleAssistant:
		message := chatMessage{Role: "assistant"}
		for _, turnPart := range turn.Parts {
			switch turnPart.Type {
			case ai.PartText:
				if text := textOf(turn.Parts); text != "" {
					message.Content = text
				}
			case ai.PartToolCall:
				if turnPart.ToolCall == nil {
					return nil, fmt.Errorf("tool-call part has no payload")
				}
				arguments := turnPart.ToolCall.Arguments
				if arguments == "" {
					arguments = "{}"
				}
				message.ToolCalls = append(message.ToolCalls, chatToolCall{
					ID:   turnPart.ToolCall.ID,
					Type: "function",
					Function: chatToolFunction{
						Name:      turnPart.ToolCall.Name,
						Arguments: arguments,
					},
				})
			case ai.PartBlob:
				return nil, fmt.Errorf("assistant turns cannot carry blob parts on this wire")
			}
		}
		return []chatMessage{message}, nil

	case ai.RoleTool:
		var messages []chatMessage
		for _, turnPart := range turn.Parts {
			if turnPart.ToolResult == nil {
				return nil, fmt.Errorf("tool-result part has no payload")
			}
			messages = append(messages, chatMessage{
				Role:       "tool",
				ToolCallID: turnPart.ToolResult.CallID,
				Content:    turnPart.ToolResult.Content,
			})
		}
		return messages, nil

	default:
		return nil, fmt.Errorf("unsupported turn role %q", turn.Role)
	}
}

// textOf concatenates the text parts of a turn.
func textOf(parts []ai.Part) string {
	var out string
	for _, turnPart := range parts {
		if turnPart.Type == ai.PartText {
			out += turnPart.Text
		}
	}
	return out
}

// contentOf builds message content from user parts: a plain string for
// text-only turns, a content-part array once a blob is involved. Not every
// self-hosted server accepts the array form, but the ones that do expect
// exactly this shape.
func contentOf(parts []ai.Part) (any, error) {
	multimodal := false
	for _, turnPart := range parts {
		if turnPart.Type == ai.PartBlob {
			multimodal = true
			break
		}
	}
	if !multimodal {
		return textOf(parts), nil
	}

	wireParts := make([]contentPart, 0, len(parts))
	for _, turnPart := range parts {
		switch turnPart.Type {
		case ai.PartText:
			wireParts = append(wireParts, contentPart{Type: "text", Text: turnPart.Text})
		case ai.PartBlob:
			if turnPart.Blob == nil {
				return nil, fmt.Errorf("blob part has no payload")
			}
			url := turnPart.Blob.URI
			if url == "" {
				url = buildDataURL(turnPart.Blob.MimeType, turnPart.Blob.Data)
			}
			if url == "" {
				return nil, fmt.Errorf("blob part has neither data nor uri")
			}
			wireParts = append(wireParts, contentPart{Type: "image_url", ImageURL: &contentPartImage{URL: url}})
		default:
			return nil, fmt.Errorf("unsupported part type %q in user turn", turnPart.Type)
		}
	}
	return wireParts, nil
}

// buildDataURL formats base64 data into a data URL for inline image inputs.
func buildDataURL(mimeType, data string) string {
	if mimeType == "" || data == "" {
		return ""
	}
	return "data:" + mimeType + ";base64," + data
}
