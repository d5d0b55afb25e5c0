// File: internal/actor/uitars.go
package actor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/deskhand/deskhand/api/schemas"
	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/runlog"
)

const defaultUITarsModel = "ui-tars"

// UITarsActor drives a locally hosted UI-TARS model through its
// OpenAI-compatible chat endpoint. The model answers with a single action
// line in a small call grammar.
type UITarsActor struct {
	client *openai.Client
	model  string
	rec    runlog.Recorder
	logger *zap.Logger
}

// NewUITarsActor builds the UI-TARS backend from configuration.
func NewUITarsActor(cfg config.ActorConfig, rec runlog.Recorder, logger *zap.Logger) *UITarsActor {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	clientCfg.BaseURL = cfg.UITarsBaseURL
	model := cfg.Model
	if model == "" {
		model = defaultUITarsModel
	}
	return &UITarsActor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		rec:    ensureRecorder(rec),
		logger: logger.Named("actor.uitars"),
	}
}

// Act sends the screenshot plus task and parses the single-line reply.
func (a *UITarsActor) Act(ctx context.Context, obs Observation) (Decision, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: "data:image/png;base64," + obs.ScreenshotB64,
					},
				},
				{Type: openai.ChatMessagePartTypeText, Text: obs.Task},
			},
		}},
	})
	if err != nil {
		return Decision{}, fmt.Errorf("ui-tars API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Decision{}, fmt.Errorf("ui-tars returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	a.rec.LogText("uitars_raw_response", raw)

	action, complete := ParseUITars(raw)
	a.rec.LogJSON("parsed_action", action)
	return Decision{Action: action, Complete: complete}, nil
}

// The UI-TARS action grammar. Coordinates appear as start_box='(x,y)' with
// optional brackets instead of parentheses.
var (
	uitarsClickRe  = regexp.MustCompile(`click\(start_box='[\(\[]?(\d+)\s*,\s*(\d+)[\)\]]?'\)`)
	uitarsHotkeyRe = regexp.MustCompile(`hotkey\(key='([^']+)'\)`)
	uitarsTypeRe   = regexp.MustCompile(`(?s)type\(content='(.*?)'\)`)
	uitarsScrollRe = regexp.MustCompile(`scroll\(start_box='[\(\[]?(\d+)\s*,\s*(\d+)[\)\]]?'\s*,\s*direction='(down|up|left|right)'\)`)
)

// ParseUITars normalizes one action line. Completion is keyed on the literal
// finished() marker appearing anywhere in the reply.
func ParseUITars(raw string) (schemas.Action, bool) {
	complete := strings.Contains(raw, "finished()")
	line := strings.TrimSpace(raw)

	if m := uitarsScrollRe.FindStringSubmatch(line); m != nil {
		p := mustAtoiPoint(m[1], m[2])
		a := schemas.NewValueAction(schemas.ActionScroll, m[3])
		a.Position = pointRaw(p)
		a.Direction = m[3]
		return a, complete
	}
	if m := uitarsClickRe.FindStringSubmatch(line); m != nil {
		return schemas.NewPositionalAction(schemas.ActionClick, mustAtoiPoint(m[1], m[2])), complete
	}
	if m := uitarsHotkeyRe.FindStringSubmatch(line); m != nil {
		key := strings.ToLower(strings.TrimSpace(m[1]))
		switch key {
		case "enter":
			return schemas.Action{Type: schemas.ActionEnter}, complete
		case "esc", "escape":
			return schemas.Action{Type: schemas.ActionEsc}, complete
		default:
			return schemas.NewTextAction(schemas.ActionHotkey, key), complete
		}
	}
	if m := uitarsTypeRe.FindStringSubmatch(line); m != nil {
		return schemas.NewTextAction(schemas.ActionInput, unescapeUITars(m[1])), complete
	}
	if strings.Contains(line, "wait()") || strings.Contains(line, "finished()") || strings.Contains(line, "call_user()") {
		return schemas.NewStopAction(line), complete
	}
	return schemas.NewStopAction(fmt.Sprintf("unrecognized action line: %s", line)), complete
}

func unescapeUITars(s string) string {
	r := strings.NewReplacer(`\'`, `'`, `\"`, `"`, `\n`, "\n", `\t`, "\t", `\\`, `\`)
	return r.Replace(s)
}

func mustAtoiPoint(xs, ys string) schemas.Point {
	x, _ := strconv.Atoi(xs)
	y, _ := strconv.Atoi(ys)
	return schemas.Point{X: x, Y: y}
}

func pointRaw(p schemas.Point) []byte {
	raw, _ := p.MarshalJSON()
	return raw
}
