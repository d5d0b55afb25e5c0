// File: internal/actor/claude.go
package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/runlog"
)

// The backend plans on a fixed virtual display; every coordinate it emits is
// rescaled per axis into the real screenshot resolution.
const (
	claudeVirtualWidth  = 1024
	claudeVirtualHeight = 768
)

const defaultClaudeModel = "claude-sonnet-4-20250514"

// ClaudeActor drives the Anthropic computer-use beta tool.
type ClaudeActor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	width     int
	height    int
	rec       runlog.Recorder
	logger    *zap.Logger
}

// NewClaudeActor builds the Anthropic backend from configuration.
func NewClaudeActor(cfg config.ActorConfig, width, height int, rec runlog.Recorder, logger *zap.Logger) *ClaudeActor {
	model := cfg.Model
	if model == "" {
		model = defaultClaudeModel
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &ClaudeActor{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		model:     model,
		maxTokens: maxTokens,
		width:     width,
		height:    height,
		rec:       ensureRecorder(rec),
		logger:    logger.Named("actor.claude"),
	}
}

// ClaudeBlock is the backend-neutral view of one response content block; the
// parser consumes these instead of SDK types so tests need no SDK fixtures.
type ClaudeBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// claudeToolInput is the computer tool's input payload.
type claudeToolInput struct {
	Action          string    `json:"action"`
	Coordinate      []float64 `json:"coordinate,omitempty"`
	StartCoordinate []float64 `json:"start_coordinate,omitempty"`
	Text            string    `json:"text,omitempty"`
	ScrollDirection string    `json:"scroll_direction,omitempty"`
	ScrollAmount    float64   `json:"scroll_amount,omitempty"`
	Duration        float64   `json:"duration,omitempty"`
}

// Act sends the observation to the Messages API and normalizes the first
// computer tool call of the reply.
func (a *ClaudeActor) Act(ctx context.Context, obs Observation) (Decision, error) {
	resp, err := a.client.Beta.Messages.New(ctx, anthropic.BetaMessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Betas:     []anthropic.AnthropicBeta{anthropic.AnthropicBetaComputerUse2025_01_24},
		Tools: []anthropic.BetaToolUnionParam{{
			OfComputerUseTool20250124: &anthropic.BetaToolComputerUse20250124Param{
				DisplayWidthPx:  claudeVirtualWidth,
				DisplayHeightPx: claudeVirtualHeight,
				DisplayNumber:   anthropic.Int(1),
			},
		}},
		Messages: []anthropic.BetaMessageParam{
			anthropic.NewBetaUserMessage(
				anthropic.NewBetaImageBlock(anthropic.BetaBase64ImageSourceParam{
					MediaType: anthropic.BetaBase64ImageSourceMediaTypeImagePNG,
					Data:      obs.ScreenshotB64,
				}),
				anthropic.NewBetaTextBlock(obs.Task),
			),
		},
	})
	if err != nil {
		return Decision{}, fmt.Errorf("anthropic API error: %w", err)
	}

	// Round-trip the SDK content into neutral blocks; the union types
	// marshal to plain API JSON.
	raw, err := json.Marshal(resp.Content)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to re-encode response content: %w", err)
	}
	a.rec.LogText("claude_raw_response", string(raw))

	var blocks []ClaudeBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return Decision{}, fmt.Errorf("failed to decode response content: %w", err)
	}

	action, complete := ParseClaudeBlocks(blocks, a.width, a.height)
	a.rec.LogJSON("parsed_action", action)
	return Decision{Action: action, Complete: complete}, nil
}

// ParseClaudeBlocks normalizes a content block list. A reply with no computer
// tool call is the model declaring it is done; that becomes STOP with the
// reply text and complete=true.
func ParseClaudeBlocks(blocks []ClaudeBlock, width, height int) (schemas.Action, bool) {
	for _, block := range blocks {
		if block.Type != "tool_use" {
			continue
		}
		var input claudeToolInput
		if err := json.Unmarshal(block.Input, &input); err != nil {
			return schemas.NewErrorAction(fmt.Sprintf("unparseable tool input: %v", err)), false
		}
		return convertClaudeAction(input, width, height), false
	}

	var texts []string
	for _, block := range blocks {
		if block.Type == "text" && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	return schemas.NewStopAction(strings.Join(texts, "\n")), true
}

func convertClaudeAction(input claudeToolInput, width, height int) schemas.Action {
	switch input.Action {
	case "left_click", "middle_click":
		return positionalOrError(schemas.ActionClick, input.Coordinate, width, height, input.Action)
	case "right_click":
		return positionalOrError(schemas.ActionRightClick, input.Coordinate, width, height, input.Action)
	case "double_click":
		return positionalOrError(schemas.ActionDoubleClick, input.Coordinate, width, height, input.Action)
	case "triple_click":
		return positionalOrError(schemas.ActionTripleClick, input.Coordinate, width, height, input.Action)
	case "mouse_move":
		return positionalOrError(schemas.ActionMove, input.Coordinate, width, height, input.Action)
	case "left_click_drag":
		start, sok := rescalePair(input.StartCoordinate, width, height)
		end, eok := rescalePair(input.Coordinate, width, height)
		if !sok || !eok {
			return schemas.NewErrorAction("left_click_drag requires start_coordinate and coordinate")
		}
		return schemas.NewDragAction(start, end)
	case "type":
		return schemas.NewTextAction(schemas.ActionInput, input.Text)
	case "key":
		return schemas.NewTextAction(schemas.ActionKey, strings.ToLower(input.Text))
	case "scroll":
		return convertClaudeScroll(input, width, height)
	case "wait":
		seconds := input.Duration
		if seconds <= 0 {
			seconds = 1
		}
		return schemas.Action{Type: schemas.ActionWait, Seconds: &seconds}
	case "screenshot":
		return schemas.Action{Type: schemas.ActionScreenshot}
	default:
		return schemas.NewErrorAction(fmt.Sprintf("unsupported tool action '%s'", input.Action))
	}
}

func convertClaudeScroll(input claudeToolInput, width, height int) schemas.Action {
	amount := input.ScrollAmount
	if amount <= 0 {
		amount = 3
	}
	var value float64
	switch input.ScrollDirection {
	case "down":
		value = amount
	case "up":
		value = -amount
	default:
		return schemas.NewErrorAction(fmt.Sprintf("unsupported scroll direction '%s'", input.ScrollDirection))
	}
	var at *schemas.Point
	if p, ok := rescalePair(input.Coordinate, width, height); ok {
		at = &p
	}
	return schemas.NewScrollAction(0, value, at)
}

func positionalOrError(tag schemas.ActionType, coord []float64, width, height int, name string) schemas.Action {
	p, ok := rescalePair(coord, width, height)
	if !ok {
		return schemas.NewErrorAction(fmt.Sprintf("%s requires a coordinate", name))
	}
	return schemas.NewPositionalAction(tag, p)
}

// rescalePair maps a virtual-display coordinate into the real screenshot
// resolution with per-axis linear scaling.
func rescalePair(coord []float64, width, height int) (schemas.Point, bool) {
	if len(coord) != 2 {
		return schemas.Point{}, false
	}
	return schemas.Point{
		X: int(math.Round(coord[0] * float64(width) / claudeVirtualWidth)),
		Y: int(math.Round(coord[1] * float64(height) / claudeVirtualHeight)),
	}, true
}
