// File: internal/actor/operator.go
package actor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/runlog"
)

const defaultOperatorModel = "computer-use-preview"

// OperatorActor drives the OpenAI Responses API computer-use tool. Turns are
// chained through previous_response_id; after the first call each observation
// is sent back as the pending computer call's screenshot output.
type OperatorActor struct {
	apiKey      string
	baseURL     string
	model       string
	environment string
	width       int
	height      int
	httpClient  *http.Client
	rec         runlog.Recorder
	logger      *zap.Logger

	prevResponseID string
	pendingCallID  string
}

// -- Responses API Request/Response Structures (Internal to this file) --

type operatorTool struct {
	Type          string `json:"type"`
	DisplayWidth  int    `json:"display_width"`
	DisplayHeight int    `json:"display_height"`
	Environment   string `json:"environment"`
}

type operatorInputContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type operatorInputItem struct {
	Type    string                 `json:"type,omitempty"`
	Role    string                 `json:"role,omitempty"`
	Content []operatorInputContent `json:"content,omitempty"`
	CallID  string                 `json:"call_id,omitempty"`
	Output  *operatorInputContent  `json:"output,omitempty"`
}

type operatorRequest struct {
	Model              string              `json:"model"`
	PreviousResponseID string              `json:"previous_response_id,omitempty"`
	Tools              []operatorTool      `json:"tools"`
	Input              []operatorInputItem `json:"input"`
	Truncation         string              `json:"truncation"`
}

// OperatorPoint is one vertex of a drag path.
type OperatorPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// OperatorCall is the action payload of a computer_call output item.
type OperatorCall struct {
	Type    string          `json:"type"`
	X       *float64        `json:"x,omitempty"`
	Y       *float64        `json:"y,omitempty"`
	Button  string          `json:"button,omitempty"`
	ScrollX float64         `json:"scroll_x,omitempty"`
	ScrollY float64         `json:"scroll_y,omitempty"`
	Text    string          `json:"text,omitempty"`
	Keys    []string        `json:"keys,omitempty"`
	Path    []OperatorPoint `json:"path,omitempty"`
}

// OperatorContent is one content entry of a message output item.
type OperatorContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// OperatorItem is one entry of the Responses API output list.
type OperatorItem struct {
	Type    string            `json:"type"`
	CallID  string            `json:"call_id,omitempty"`
	Action  *OperatorCall     `json:"action,omitempty"`
	Content []OperatorContent `json:"content,omitempty"`
}

type operatorResponse struct {
	ID     string         `json:"id"`
	Output []OperatorItem `json:"output"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOperatorActor builds the operator backend from configuration.
func NewOperatorActor(cfg config.ActorConfig, width, height int, rec runlog.Recorder, logger *zap.Logger) *OperatorActor {
	model := cfg.Model
	if model == "" {
		model = defaultOperatorModel
	}
	return &OperatorActor{
		apiKey:      cfg.OpenAIAPIKey,
		baseURL:     strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		model:       model,
		environment: normalizeEnvironment(cfg.Environment),
		width:       width,
		height:      height,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		rec:         ensureRecorder(rec),
		logger:      logger.Named("actor.operator"),
	}
}

// Act sends the observation and normalizes the first computer call of the
// response.
func (a *OperatorActor) Act(ctx context.Context, obs Observation) (Decision, error) {
	if a.apiKey == "" {
		return Decision{}, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	req := a.buildRequest(obs)
	a.rec.LogJSON("operator_request", req)

	resp, err := a.send(ctx, req)
	if err != nil {
		return Decision{}, err
	}
	a.rec.LogJSON("operator_raw_response", resp)

	a.prevResponseID = resp.ID
	a.pendingCallID = firstComputerCallID(resp.Output)

	action, complete := ParseOperatorOutput(resp.Output)
	a.rec.LogJSON("parsed_action", action)
	return Decision{Action: action, Complete: complete}, nil
}

func (a *OperatorActor) buildRequest(obs Observation) operatorRequest {
	req := operatorRequest{
		Model:              a.model,
		PreviousResponseID: a.prevResponseID,
		Truncation:         "auto",
		Tools: []operatorTool{{
			Type:          "computer_use_preview",
			DisplayWidth:  a.width,
			DisplayHeight: a.height,
			Environment:   a.environment,
		}},
	}

	imageURL := "data:image/png;base64," + obs.ScreenshotB64
	if a.pendingCallID != "" {
		// Mid-task turn: answer the pending computer call with the fresh
		// screenshot.
		req.Input = []operatorInputItem{{
			Type:   "computer_call_output",
			CallID: a.pendingCallID,
			Output: &operatorInputContent{Type: "input_image", ImageURL: imageURL},
		}}
		return req
	}

	a.rec.LogText("operator_prompt", obs.Task)
	req.Input = []operatorInputItem{{
		Role: "user",
		Content: []operatorInputContent{
			{Type: "input_text", Text: obs.Task},
			{Type: "input_image", ImageURL: imageURL},
		},
	}}
	return req
}

func (a *OperatorActor) send(ctx context.Context, req operatorRequest) (*operatorResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	b.MaxInterval = 30 * time.Second

	var parsed operatorResponse
	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/responses", bytes.NewBuffer(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

		start := time.Now()
		resp, err := a.httpClient.Do(httpReq)
		if err != nil {
			a.logger.Warn("Network error during operator request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return a.handleAPIError(resp.StatusCode, respBody)
		}
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}
		if parsed.Error != nil {
			return backoff.Permanent(fmt.Errorf("operator API error: %s", parsed.Error.Message))
		}
		a.logger.Info("Operator generation complete.",
			zap.Duration("duration", time.Since(start)),
			zap.Int("output_items", len(parsed.Output)),
		)
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (a *OperatorActor) handleAPIError(statusCode int, body []byte) error {
	a.logger.Error("Operator API returned error status",
		zap.Int("status", statusCode), zap.String("response", string(body)))
	err := fmt.Errorf("operator API error: status %d, body: %s", statusCode, string(body))
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
		return err // Transient errors, retry.
	default:
		return backoff.Permanent(err)
	}
}

func firstComputerCallID(items []OperatorItem) string {
	for _, item := range items {
		if item.Type == "computer_call" && item.Action != nil {
			return item.CallID
		}
	}
	return ""
}

// ParseOperatorOutput normalizes a Responses API output list into one
// canonical action. No computer call in the list means the model answered in
// prose; that surfaces as an ERROR action carrying the last text so the
// operator sees what the model said.
func ParseOperatorOutput(items []OperatorItem) (schemas.Action, bool) {
	for _, item := range items {
		if item.Type == "computer_call" && item.Action != nil {
			return convertOperatorCall(*item.Action), false
		}
	}

	lastText := ""
	for _, item := range items {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" && c.Text != "" {
				lastText = c.Text
			}
		}
	}
	if lastText == "" {
		lastText = "no computer call in response"
	}
	return schemas.NewErrorAction(lastText), false
}

func convertOperatorCall(call OperatorCall) schemas.Action {
	switch call.Type {
	case "click":
		tag := schemas.ActionClick
		if call.Button == "right" {
			tag = schemas.ActionRightClick
		}
		return schemas.NewPositionalAction(tag, callPoint(call))
	case "double_click":
		return schemas.NewPositionalAction(schemas.ActionDoubleClick, callPoint(call))
	case "move":
		return schemas.NewPositionalAction(schemas.ActionMove, callPoint(call))
	case "scroll":
		var at *schemas.Point
		if call.X != nil && call.Y != nil {
			p := callPoint(call)
			at = &p
		}
		return schemas.NewScrollAction(call.ScrollX, call.ScrollY, at)
	case "wait":
		return schemas.NewValueAction(schemas.ActionWait, "")
	case "type":
		return schemas.NewTextAction(schemas.ActionInput, call.Text)
	case "keypress":
		return classifyKeypress(call.Keys)
	case "drag":
		if len(call.Path) > 0 {
			return schemas.NewDragAction(
				roundPoint(call.Path[0].X, call.Path[0].Y),
				roundPoint(call.Path[len(call.Path)-1].X, call.Path[len(call.Path)-1].Y),
			)
		}
		p := callPoint(call)
		return schemas.NewDragAction(p, p)
	case "screenshot":
		return schemas.Action{Type: schemas.ActionScreenshot}
	default:
		return schemas.NewErrorAction(fmt.Sprintf("unsupported computer call '%s'", call.Type))
	}
}

func callPoint(call OperatorCall) schemas.Point {
	var x, y float64
	if call.X != nil {
		x = *call.X
	}
	if call.Y != nil {
		y = *call.Y
	}
	return roundPoint(x, y)
}

func roundPoint(x, y float64) schemas.Point {
	return schemas.Point{X: int(math.Round(x)), Y: int(math.Round(y))}
}

// normalizeEnvironment folds OS aliases into the four names the Responses
// API accepts.
func normalizeEnvironment(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "win", "windows", "win32", "win64":
		return "windows"
	case "mac", "macos", "darwin", "osx":
		return "mac"
	case "linux", "ubuntu":
		return "linux"
	case "browser", "web":
		return "browser"
	default:
		return "windows"
	}
}
