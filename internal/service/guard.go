package service

import (
	"context"
	"strings"

	"github.com/stadium-ops/event-gateway/internal/domain/model"
	"github.com/stadium-ops/event-gateway/internal/domain/policy"
	"github.com/stadium-ops/event-gateway/internal/domain/registry"
)

// Decision is the explicit outcome of a guard stage. Pass means the stage
// had no opinion on the frame; a suppressed frame is always a Deny, never a
// nil return.
type Decision int

const (
	Pass Decision = iota
	Admit
	Deny
)

func (d Decision) String() string {
	switch d {
	case Admit:
		return "admit"
	case Deny:
		return "deny"
	default:
		return "pass"
	}
}

// Stage inspects one frame against one session. Stages must not block
// except on their own bounded I/O and must be safe for concurrent use
// across sessions.
type Stage interface {
	Name() string
	Check(ctx context.Context, s registry.Sessioner, f *model.Frame) Decision
}

// Pipeline runs stages in order. The first Admit or Deny wins; if every
// stage passes, the frame is admitted.
type Pipeline struct {
	stages []Stage
}

func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

func (p *Pipeline) Check(ctx context.Context, s registry.Sessioner, f *model.Frame) Decision {
	for _, stage := range p.stages {
		if d := stage.Check(ctx, s, f); d != Pass {
			return d
		}
	}
	return Admit
}

// NewGuardPipeline assembles the production pipeline: authentication on
// connect frames, authorization on subscribe frames.
func NewGuardPipeline(auther Auther, table *policy.Table) *Pipeline {
	return NewPipeline(
		&AuthStage{auther: auther},
		&AuthorizeStage{table: table},
	)
}

// AuthStage attaches a principal to the session when the connect frame is
// processed. Authentication failure is not a reason to reject the
// connection: the session simply stays anonymous, so this stage never
// returns Deny.
type AuthStage struct {
	auther Auther
}

func (st *AuthStage) Name() string { return "auth" }

func (st *AuthStage) Check(ctx context.Context, s registry.Sessioner, f *model.Frame) Decision {
	if f.Type != model.FrameConnect {
		return Pass
	}

	if token := BearerToken(f); token != "" {
		s.SetPrincipal(st.auther.Resolve(ctx, token))
	}
	return Admit
}

// BearerToken extracts the credential from the accepted header spellings:
// "Authorization"/"authorization" carrying "Bearer <token>", or a bare
// "token" header treated as if it were a bearer value.
func BearerToken(f *model.Frame) string {
	auth, ok := f.Header("Authorization")
	if !ok {
		auth, ok = f.Header("authorization")
	}
	if !ok {
		if token, found := f.Header("token"); found {
			auth = "Bearer " + token
		}
	}

	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// AuthorizeStage checks subscribe frames against the policy table. A denial
// is silent: the caller drops the frame without an error frame, matching
// the fail-closed-but-quiet contract clients already depend on.
type AuthorizeStage struct {
	table *policy.Table
}

func (st *AuthorizeStage) Name() string { return "authorize" }

func (st *AuthorizeStage) Check(_ context.Context, s registry.Sessioner, f *model.Frame) Decision {
	if f.Type != model.FrameSubscribe {
		return Pass
	}

	if st.table.Allow(s.Principal(), f.Destination) {
		return Admit
	}
	return Deny
}
