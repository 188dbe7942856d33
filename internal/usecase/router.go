package usecase

import (
	"context"
	"log/slog"

	"LinkedLens/internal/domain"
	"LinkedLens/internal/ports"
)

// Action names a control request.
type Action string

// Synchronous actions complete before Dispatch returns; reanalyze completes
// when its run finishes.
const (
	ActionGetClassifications Action = "getClassifications"
	ActionToggleAutoHide     Action = "toggleAutoHide"
	ActionToggleExtension    Action = "toggleExtension"
	ActionReanalyze          Action = "reanalyze"
)

// ExcerptLength bounds the post text returned to the control surface.
const ExcerptLength = 100

// Request is one inbound control message.
type Request struct {
	Action  Action         `json:"action"`
	Payload RequestPayload `json:"payload"`
}

// RequestPayload carries the toggle values; each action reads only its own field.
type RequestPayload struct {
	AutoHide *bool `json:"autoHide,omitempty"`
	Enabled  *bool `json:"enabled,omitempty"`
}

// Response is the single reply to a Request. Status is set only for getClassifications.
type Response struct {
	Success bool `json:"success"`
	*Status
}

// Status is the state view served to the control surface.
type Status struct {
	Data             []PostSummary `json:"data"`
	Stats            domain.Stats  `json:"stats"`
	AutoHideEnabled  bool          `json:"autoHideEnabled"`
	ExtensionEnabled bool          `json:"extensionEnabled"`
	IsProcessing     bool          `json:"isProcessing"`
	Error            *string       `json:"error"`
}

// PostSummary is a post as listed by the control surface.
type PostSummary struct {
	ID             int                   `json:"id"`
	Author         string                `json:"author"`
	Text           string                `json:"text"`
	Classification domain.Classification `json:"classification"`
}

// Router dispatches control requests against the pipeline state.
type Router struct {
	pipeline  *Pipeline
	state     *State
	annotator ports.Annotator
	logger    *slog.Logger
}

// NewRouter builds a router over the pipeline and its state.
func NewRouter(pipeline *Pipeline, annotator ports.Annotator, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		pipeline:  pipeline,
		state:     pipeline.State(),
		annotator: annotator,
		logger:    logger,
	}
}

// Dispatch handles req and delivers exactly one Response on the returned channel.
// Unknown actions get the zero Response.
func (r *Router) Dispatch(ctx context.Context, req Request) <-chan Response {
	out := make(chan Response, 1)
	r.logger.Debug("control request", "action", req.Action)

	switch req.Action {
	case ActionGetClassifications:
		out <- Response{Success: true, Status: r.status()}
	case ActionToggleAutoHide:
		out <- r.toggleAutoHide(req.Payload)
	case ActionToggleExtension:
		out <- r.toggleExtension(req.Payload)
	case ActionReanalyze:
		// The run is not tied to the requester: it completes even if they go away.
		runCtx := context.WithoutCancel(ctx)
		go func() {
			defer close(out)
			r.pipeline.Analyze(runCtx)
			out <- Response{Success: true}
		}()
		return out
	default:
		r.logger.Warn("unknown control action", "action", req.Action)
		out <- Response{}
	}

	close(out)
	return out
}

func (r *Router) status() *Status {
	snap := r.state.Snapshot()
	data := make([]PostSummary, 0, len(snap.Posts))
	for _, p := range snap.Posts {
		data = append(data, PostSummary{
			ID:             p.ID,
			Author:         p.Author,
			Text:           Excerpt(p.Text),
			Classification: p.Classification,
		})
	}
	return &Status{
		Data:             data,
		Stats:            snap.Stats,
		AutoHideEnabled:  snap.AutoHideEnabled,
		ExtensionEnabled: snap.ExtensionEnabled,
		IsProcessing:     snap.IsProcessing,
		Error:            snap.LastError,
	}
}

func (r *Router) toggleAutoHide(payload RequestPayload) Response {
	if payload.AutoHide == nil {
		return Response{}
	}
	hide := r.state.SetAutoHide(*payload.AutoHide)
	if r.annotator != nil {
		r.annotator.SetVisibility(r.state.Posts(), hide)
	}
	return Response{Success: true}
}

func (r *Router) toggleExtension(payload RequestPayload) Response {
	if payload.Enabled == nil {
		return Response{}
	}
	hide := r.state.SetExtensionEnabled(*payload.Enabled)
	if r.annotator != nil {
		switch {
		case !*payload.Enabled:
			r.annotator.RestoreAll()
		case hide:
			r.annotator.SetVisibility(r.state.Posts(), true)
		}
	}
	return Response{Success: true}
}

// Excerpt cuts text to ExcerptLength characters and always appends "...".
func Excerpt(text string) string {
	runes := []rune(text)
	if len(runes) > ExcerptLength {
		runes = runes[:ExcerptLength]
	}
	return string(runes) + "..."
}
