package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Expert is a chat with one specialist model and its tools.
type Expert struct {
	Name        string
	Description string // what facilitators can expect from this expert
	ModelName   string
	Config      *genai.GenerateContentConfig
	Library     Library
	chat        *genai.Chat
}

// Start opens the expert's chat.
func (e *Expert) Start(ctx context.Context, client *genai.Client) error {
	chat, err := client.Chats.Create(ctx, e.ModelName, e.Config, nil)
	if err != nil {
		return err
	}
	e.chat = chat
	return nil
}

// Ask sends parts to the expert and returns its answer. Function calls the
// expert makes are resolved through its library and fed back until a plain
// answer comes out.
func (e *Expert) Ask(ctx context.Context, parts ...*genai.Part) (*genai.Content, error) {
	resp, err := e.chat.Send(ctx, parts...)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from expert %s", e.Name)
	}
	part0 := resp.Candidates[0].Content.Parts[0]
	if part0.FunctionCall != nil {
		if e.Library == nil {
			return nil, fmt.Errorf("expert %s doesn't know how to make function calls", e.Name)
		}
		answer := e.Library(ctx, part0.FunctionCall)
		return e.Ask(ctx, &genai.Part{FunctionResponse: answer})
	}
	return resp.Candidates[0].Content, nil
}

// Declaration returns the function declaration a facilitator uses to ask this
// expert a question.
func (e *Expert) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        e.Name,
		Description: e.Description,
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"question": {
					Type:        genai.TypeString,
					Description: "The question to ask the expert.",
				},
			},
			Required: []string{"question"},
		},
		Response: &genai.Schema{
			Type:        genai.TypeString,
			Description: "Expert's response.",
		},
	}
}

// Call asks this expert the question of a facilitator's function call.
func (e *Expert) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	answer := &genai.FunctionResponse{ID: id, Name: e.Name}

	question, ok := args["question"].(string)
	if !ok {
		answer.Response = map[string]any{"error": fmt.Sprintf("invalid question type %T, expected string", args["question"])}
		return answer
	}

	response, err := e.Ask(ctx, &genai.Part{Text: question})
	if err != nil {
		answer.Response = map[string]any{"error": fmt.Sprintf("asking the expert failed: %v", err)}
		return answer
	}
	answer.Response = map[string]any{"output": response.Parts[0].Text}
	return answer
}
