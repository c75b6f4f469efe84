// Package worker consumes queued AnalysisJob dispatches and runs them
// against a fresh runtime.Session, the asynchronous counterpart to the
// HTTP and gRPC interfaces' synchronous request/response handlers.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/turtacn/mfa-engine/internal/analysis"
	"github.com/turtacn/mfa-engine/internal/builder"
	"github.com/turtacn/mfa-engine/internal/config"
	"github.com/turtacn/mfa-engine/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/internal/runtime"
	"github.com/turtacn/mfa-engine/pkg/ids"
)

// JobPayload is the JSON envelope carried in an analysis.AnalysisJob's
// Payload field. It embeds everything a worker needs to rebuild the central
// system and dispatch on Kind without the producer blocking for a reply.
type JobPayload struct {
	CentralSystem runtime.Document        `json:"central_system"`
	Params        builder.Parameters      `json:"params"`
	Objective     builder.ObjectiveSpec   `json:"objective"`
	Reactions     []ids.ReactionID        `json:"reactions,omitempty"`
	Compounds     []ids.CompoundID        `json:"compounds,omitempty"`
	Compartment   ids.CompartmentID       `json:"compartment,omitempty"`
	Fraction      float64                 `json:"fraction,omitempty"`
	MinGrowth     float64                 `json:"min_growth,omitempty"`
	MaxGrowth     float64                 `json:"max_growth,omitempty"`
	SolutionLimit int                     `json:"solution_limit,omitempty"`
	SizeInterval  float64                 `json:"size_interval,omitempty"`
	Experiments   []analysis.DeletionExperiment `json:"experiments,omitempty"`
}

// Result is published back to a job's ReplyTo topic on completion.
type Result struct {
	JobID   string      `json:"job_id"`
	Kind    string      `json:"kind"`
	Ok      bool        `json:"ok"`
	Error   string      `json:"error,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Dispatcher builds one runtime.Session per job and routes it to the
// Orchestrator operation named by the job's Kind.
type Dispatcher struct {
	cfg      config.Config
	logger   logging.Logger
	producer *kafka.Producer
}

// NewDispatcher constructs a Dispatcher. producer may be nil; jobs whose
// ReplyTo is set are then logged instead of published.
func NewDispatcher(cfg config.Config, logger logging.Logger, producer *kafka.Producer) *Dispatcher {
	return &Dispatcher{cfg: cfg, logger: logger, producer: producer}
}

// HandleMessage satisfies kafka.MessageHandler. It decodes the AnalysisJob
// envelope from msg.Value, dispatches it, and publishes the outcome to the
// job's ReplyTo topic when one was set.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg *kafka.Message) error {
	var job analysis.AnalysisJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return fmt.Errorf("worker: decode job envelope: %w", err)
	}

	result := d.run(ctx, job)

	d.logger.Info("job processed",
		logging.String("job_id", job.ID),
		logging.String("kind", string(job.Kind)),
		logging.Bool("ok", result.Ok),
	)

	if job.ReplyTo == "" || d.producer == nil {
		return nil
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("worker: encode result: %w", err)
	}
	return d.producer.Publish(ctx, &kafka.ProducerMessage{
		Topic: job.ReplyTo,
		Key:   []byte(job.ID),
		Value: encoded,
	})
}

func (d *Dispatcher) run(ctx context.Context, job analysis.AnalysisJob) Result {
	result := Result{JobID: job.ID, Kind: string(job.Kind)}

	var payload JobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		result.Error = fmt.Sprintf("decode payload: %v", err)
		return result
	}

	sess, err := runtime.New(d.cfg, d.logger)
	if err != nil {
		result.Error = fmt.Sprintf("build session: %v", err)
		return result
	}
	if err := sess.LoadCentralSystem(payload.CentralSystem); err != nil {
		result.Error = fmt.Sprintf("load central system: %v", err)
		return result
	}
	if err := sess.BuildProblem(payload.Params, payload.Objective); err != nil {
		result.Error = fmt.Sprintf("build problem: %v", err)
		return result
	}

	switch job.Kind {
	case analysis.JobFBA:
		result.Payload = sess.Orchestrator.RunFBA(ctx)
		result.Ok = true

	case analysis.JobFVA:
		fva, err := sess.Orchestrator.FindTightBounds(payload.Reactions, payload.Fraction)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		result.Payload = fva
		result.Ok = true

	case analysis.JobDeletion:
		result.Payload = sess.Orchestrator.RunDeletionExperiments(ctx, payload.Experiments)
		result.Ok = true

	case analysis.JobGapFill:
		gf, err := sess.Orchestrator.GapFill(ctx, payload.Reactions, payload.MinGrowth)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		result.Payload = gf
		result.Ok = true

	case analysis.JobGapGenerate:
		gg, err := sess.Orchestrator.GapGenerate(ctx, payload.Reactions, payload.MaxGrowth)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		result.Payload = gg
		result.Ok = true

	case analysis.JobMediaMinimize:
		mm, err := sess.Orchestrator.MinimizeMedia(ctx, payload.Compounds, payload.Compartment, payload.MinGrowth)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		result.Payload = mm
		result.Ok = true

	case analysis.JobRecursiveMILP:
		result.Payload = sess.Orchestrator.RecursiveMILP(ctx, payload.Reactions, payload.SolutionLimit, payload.SizeInterval)
		result.Ok = true

	default:
		result.Error = fmt.Sprintf("unsupported job kind %q", job.Kind)
	}

	return result
}
