package analysis

import (
	"context"
)

// JobKind names which orchestrator operation an AnalysisJob requests.
type JobKind string

const (
	JobFBA               JobKind = "fba"
	JobFVA               JobKind = "fva"
	JobMinimizeFlux      JobKind = "minimize_flux"
	JobMinimizeReactions JobKind = "minimize_reactions"
	JobReactionEssential JobKind = "reaction_essentiality"
	JobGeneEssential     JobKind = "gene_essentiality"
	JobDeletion          JobKind = "deletion"
	JobRecursiveMILP     JobKind = "recursive_milp"
	JobGapFill           JobKind = "gap_fill"
	JobGapGenerate       JobKind = "gap_generate"
	JobMediaMinimize     JobKind = "media_minimize"
)

// AnalysisJob is a dispatch envelope for one orchestrator operation:
// enough to let a worker process reconstruct and run the request without
// the caller blocking on the result. Async is false by default — the
// synchronous in-process path is the default, per the resource model; a
// caller opts into queued dispatch by setting Async and calling EnqueueJob.
type AnalysisJob struct {
	ID      string
	ModelID string
	Kind    JobKind
	Async   bool
	Payload []byte // kind-specific encoded request (e.g. a JSON-marshaled FVA request)
	ReplyTo string // topic or correlation id a worker should publish the result to
}

// Publisher is the narrow messaging port EnqueueJob needs: publish one
// encoded job to a topic. internal/infrastructure/kafka adapts its
// producer to this interface at wiring time, the same way
// solver.ObjectStore decouples FileDispatchBackend from the minio SDK —
// this package must not import a Kafka client library directly.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, value []byte) error
}

// EnqueueJob publishes job to topic via publisher for asynchronous
// execution by a worker process. It does not itself run the job; a
// consumer elsewhere (the mfa-worker binary) deserializes Payload, builds
// an Orchestrator against ModelID, and dispatches on Kind. Returns an
// error only if publishing itself fails — job-level failures surface
// later, out of band, through whatever result channel the caller's worker
// writes to.
func EnqueueJob(ctx context.Context, publisher Publisher, topic string, job AnalysisJob) error {
	return publisher.Publish(ctx, topic, job.ID, job.Payload)
}
