package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/llmwire/llmwire/core/parse"
	"github.com/llmwire/llmwire/internal/utils"
	"github.com/llmwire/llmwire/providers/ai"
)

// toWire converts an ai.Request to a Gemini generateContentRequest.
func toWire(request ai.Request) (generateContentRequest, error) {
	wire := generateContentRequest{}

	if request.System != "" {
		wire.SystemInstruction = &systemInstruction{
			Parts: []part{{Text: request.System}},
		}
	}

	for _, turn := range request.Turns {
		if err := turn.Validate(); err != nil {
			return wire, fmt.Errorf("invalid request: %w", err)
		}

		// Gemini has no system role inside contents; fold stray system turns
		// into the instruction channel.
		if turn.Role == ai.RoleSystem {
			if wire.SystemInstruction == nil {
				wire.SystemInstruction = &systemInstruction{}
			}
			for _, turnPart := range turn.Parts {
				if turnPart.Type == ai.PartText {
					wire.SystemInstruction.Parts = append(wire.SystemInstruction.Parts, part{Text: turnPart.Text})
				}
			}
			continue
		}

		converted, err := turnToContent(turn)
		if err != nil {
			return wire, err
		}
		wire.Contents = append(wire.Contents, converted)
	}

	if len(request.Tools) > 0 {
		declarations := make([]functionDeclaration, 0, len(request.Tools))
		for _, declaration := range request.Tools {
			declarations = append(declarations, functionDeclaration{
				Name:        declaration.Name,
				Description: declaration.Description,
				Parameters:  declaration.Parameters,
			})
		}
		wire.Tools = []tool{{FunctionDeclarations: declarations}}
	}

	wire.GenerationConfig = generationConfigToWire(request.Generation)

	return wire, nil
}

// turnToContent converts one conversation turn.
// Role mapping: user -> user, assistant -> model, tool -> user with functionResponse parts.
func turnToContent(turn ai.Turn) (content, error) {
	converted := content{}

	switch turn.Role {
	case ai.RoleUser:
		converted.Role = "user"
	case ai.RoleAssistant:
		converted.Role = "model"
	case ai.RoleTool:
		converted.Role = "user"
	default:
		return converted, fmt.Errorf("unsupported turn role %q", turn.Role)
	}

	for _, turnPart := range turn.Parts {
		wirePart, err := partToWire(turnPart)
		if err != nil {
			return converted, err
		}
		converted.Parts = append(converted.Parts, wirePart)
	}

	return converted, nil
}

func partToWire(turnPart ai.Part) (part, error) {
	switch turnPart.Type {
	case ai.PartText:
		return part{Text: turnPart.Text}, nil

	case ai.PartBlob:
		if turnPart.Blob == nil {
			return part{}, fmt.Errorf("blob part has no payload")
		}
		if turnPart.Blob.URI != "" {
			return part{FileData: &fileData{
				MimeType: turnPart.Blob.MimeType,
				FileURI:  turnPart.Blob.URI,
			}}, nil
		}
		return part{InlineData: &inlineData{
			MimeType: turnPart.Blob.MimeType,
			Data:     turnPart.Blob.Data,
		}}, nil

	case ai.PartToolCall:
		if turnPart.ToolCall == nil {
			return part{}, fmt.Errorf("tool-call part has no payload")
		}
		arguments := turnPart.ToolCall.Arguments
		if arguments == "" {
			arguments = "{}"
		}
		repaired, ok := parse.EnsureJSON(arguments)
		if !ok {
			return part{}, fmt.Errorf("tool call %s has unparseable arguments: %s",
				turnPart.ToolCall.Name, utils.TruncateStringDefault(arguments))
		}
		return part{FunctionCall: &functionCall{
			Name: turnPart.ToolCall.Name,
			Args: json.RawMessage(repaired),
		}}, nil

	case ai.PartToolResult:
		if turnPart.ToolResult == nil {
			return part{}, fmt.Errorf("tool-result part has no payload")
		}
		// Gemini correlates a functionResponse by function name, so the
		// canonical call id is not transmitted on this wire.
		return part{FunctionResponse: &functionResponse{
			Name:     turnPart.ToolResult.Name,
			Response: toolResultPayload(turnPart.ToolResult.Content),
		}}, nil

	default:
		return part{}, fmt.Errorf("unsupported part type %q", turnPart.Type)
	}
}

// toolResultPayload shapes a tool result for the functionResponse field,
// which requires a JSON object. Non-object content is wrapped.
func toolResultPayload(content string) json.RawMessage {
	if len(content) > 0 && content[0] == '{' && json.Valid([]byte(content)) {
		return json.RawMessage(content)
	}
	wrapped, err := json.Marshal(map[string]string{"result": content})
	if err != nil {
		wrapped = []byte(`{"result": ""}`)
	}
	return wrapped
}

func generationConfigToWire(params *ai.GenerationParams) *generationConfig {
	if params == nil {
		return nil
	}

	wire := &generationConfig{
		Temperature:   params.Temperature,
		TopP:          params.TopP,
		StopSequences: params.StopSequences,
	}
	if params.MaxOutputTokens > 0 {
		wire.MaxOutputTokens = utils.Ptr(params.MaxOutputTokens)
	}
	return wire
}
