package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/mfa-engine/internal/domain/compartment"
	"github.com/turtacn/mfa-engine/internal/domain/compound"
	"github.com/turtacn/mfa-engine/internal/domain/gene"
	"github.com/turtacn/mfa-engine/internal/domain/reaction"
	"github.com/turtacn/mfa-engine/internal/model"
	"github.com/turtacn/mfa-engine/pkg/ids"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// ModelRepository persists the declarative model (compartments, compounds,
// reactions, genes) and analysis run history for one metabolic model. Each
// entity is addressed within a modelID namespace so several models' data can
// share one database without colliding.
type ModelRepository interface {
	SaveCompartments(ctx context.Context, modelID string, decls []compartment.Declaration) error
	LoadCompartments(ctx context.Context, modelID string) ([]compartment.Declaration, error)

	SaveCompounds(ctx context.Context, modelID string, decls []compound.Declaration) error
	LoadCompounds(ctx context.Context, modelID string) ([]compound.Declaration, error)

	SaveReactions(ctx context.Context, modelID string, decls []reaction.Declaration) error
	LoadReactions(ctx context.Context, modelID string) ([]reaction.Declaration, error)

	SaveGenes(ctx context.Context, modelID string, decls []gene.Declaration) error
	LoadGenes(ctx context.Context, modelID string) ([]gene.Declaration, error)

	SaveRun(ctx context.Context, modelID string, runID ids.RunID, kind string, sol model.OptSolutionData) error
	GetRun(ctx context.Context, runID ids.RunID) (model.OptSolutionData, error)
	ListRuns(ctx context.Context, modelID string, limit int) ([]RunSummary, error)
}

// RunSummary is one row of an analysis run's persisted history, without the
// full Values vector — used to populate run listings without pulling every
// solver column for every row.
type RunSummary struct {
	RunID          ids.RunID
	Kind           string
	Status         model.SolutionStatus
	ObjectiveValue float64
}

type postgresModelRepo struct {
	pool     *pgxpool.Pool
	log      Logger
	executor pgxQuerier
}

// NewPostgresModelRepo returns a ModelRepository backed by pool. log may be
// nil, in which case a no-op logger is used.
func NewPostgresModelRepo(pool *pgxpool.Pool, log Logger) ModelRepository {
	return &postgresModelRepo{pool: pool, log: log, executor: pool}
}

// withTx runs fn against a repository bound to a transaction, committing on
// success and rolling back on error or panic, mirroring
// postgres.WithTransaction's recover/rollback/commit sequencing.
func (r *postgresModelRepo) withTx(ctx context.Context, fn func(*postgresModelRepo) error) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeDBConnectionError, "model repo: begin transaction")
	}

	txRepo := &postgresModelRepo{pool: r.pool, log: r.log, executor: tx}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(txRepo)
	return err
}

func (r *postgresModelRepo) SaveCompartments(ctx context.Context, modelID string, decls []compartment.Declaration) error {
	return r.withTx(ctx, func(tx *postgresModelRepo) error {
		for _, decl := range decls {
			data, err := json.Marshal(decl)
			if err != nil {
				return mfaerr.Wrap(err, mfaerr.CodeInternal, "model repo: marshal compartment declaration")
			}
			_, err = tx.executor.Exec(ctx, `
				INSERT INTO model_compartments (model_id, abbreviation, name, data)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (model_id, abbreviation) DO UPDATE
				SET name = EXCLUDED.name, data = EXCLUDED.data
			`, modelID, decl.Abbreviation, decl.Name, data)
			if err != nil {
				return mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: save compartment "+decl.Abbreviation)
			}
		}
		return nil
	})
}

func (r *postgresModelRepo) LoadCompartments(ctx context.Context, modelID string) ([]compartment.Declaration, error) {
	rows, err := r.executor.Query(ctx, `SELECT data FROM model_compartments WHERE model_id = $1 ORDER BY abbreviation`, modelID)
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: load compartments")
	}
	defer rows.Close()

	var out []compartment.Declaration
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: scan compartment row")
		}
		var decl compartment.Declaration
		if err := json.Unmarshal(raw, &decl); err != nil {
			return nil, mfaerr.Wrap(err, mfaerr.CodeInternal, "model repo: unmarshal compartment declaration")
		}
		out = append(out, decl)
	}
	return out, rows.Err()
}

func (r *postgresModelRepo) SaveCompounds(ctx context.Context, modelID string, decls []compound.Declaration) error {
	return r.withTx(ctx, func(tx *postgresModelRepo) error {
		for _, decl := range decls {
			data, err := json.Marshal(decl)
			if err != nil {
				return mfaerr.Wrap(err, mfaerr.CodeInternal, "model repo: marshal compound declaration")
			}
			_, err = tx.executor.Exec(ctx, `
				INSERT INTO model_compounds (model_id, compound_id, name, formula, data)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (model_id, compound_id) DO UPDATE
				SET name = EXCLUDED.name, formula = EXCLUDED.formula, data = EXCLUDED.data
			`, modelID, string(decl.ID), decl.Name, decl.Formula, data)
			if err != nil {
				return mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: save compound "+string(decl.ID))
			}
		}
		return nil
	})
}

func (r *postgresModelRepo) LoadCompounds(ctx context.Context, modelID string) ([]compound.Declaration, error) {
	rows, err := r.executor.Query(ctx, `SELECT data FROM model_compounds WHERE model_id = $1 ORDER BY compound_id`, modelID)
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: load compounds")
	}
	defer rows.Close()

	var out []compound.Declaration
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: scan compound row")
		}
		var decl compound.Declaration
		if err := json.Unmarshal(raw, &decl); err != nil {
			return nil, mfaerr.Wrap(err, mfaerr.CodeInternal, "model repo: unmarshal compound declaration")
		}
		out = append(out, decl)
	}
	return out, rows.Err()
}

func (r *postgresModelRepo) SaveReactions(ctx context.Context, modelID string, decls []reaction.Declaration) error {
	return r.withTx(ctx, func(tx *postgresModelRepo) error {
		for _, decl := range decls {
			data, err := json.Marshal(decl)
			if err != nil {
				return mfaerr.Wrap(err, mfaerr.CodeInternal, "model repo: marshal reaction declaration")
			}
			_, err = tx.executor.Exec(ctx, `
				INSERT INTO model_reactions (model_id, reaction_id, name, data)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (model_id, reaction_id) DO UPDATE
				SET name = EXCLUDED.name, data = EXCLUDED.data
			`, modelID, string(decl.ID), decl.Name, data)
			if err != nil {
				return mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: save reaction "+string(decl.ID))
			}
		}
		return nil
	})
}

func (r *postgresModelRepo) LoadReactions(ctx context.Context, modelID string) ([]reaction.Declaration, error) {
	rows, err := r.executor.Query(ctx, `SELECT data FROM model_reactions WHERE model_id = $1 ORDER BY reaction_id`, modelID)
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: load reactions")
	}
	defer rows.Close()

	var out []reaction.Declaration
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: scan reaction row")
		}
		var decl reaction.Declaration
		if err := json.Unmarshal(raw, &decl); err != nil {
			return nil, mfaerr.Wrap(err, mfaerr.CodeInternal, "model repo: unmarshal reaction declaration")
		}
		out = append(out, decl)
	}
	return out, rows.Err()
}

func (r *postgresModelRepo) SaveGenes(ctx context.Context, modelID string, decls []gene.Declaration) error {
	return r.withTx(ctx, func(tx *postgresModelRepo) error {
		for _, decl := range decls {
			data, err := json.Marshal(decl)
			if err != nil {
				return mfaerr.Wrap(err, mfaerr.CodeInternal, "model repo: marshal gene declaration")
			}
			_, err = tx.executor.Exec(ctx, `
				INSERT INTO model_genes (model_id, gene_id, name, data)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (model_id, gene_id) DO UPDATE
				SET name = EXCLUDED.name, data = EXCLUDED.data
			`, modelID, string(decl.ID), decl.Name, data)
			if err != nil {
				return mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: save gene "+string(decl.ID))
			}
		}
		return nil
	})
}

func (r *postgresModelRepo) LoadGenes(ctx context.Context, modelID string) ([]gene.Declaration, error) {
	rows, err := r.executor.Query(ctx, `SELECT data FROM model_genes WHERE model_id = $1 ORDER BY gene_id`, modelID)
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: load genes")
	}
	defer rows.Close()

	var out []gene.Declaration
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: scan gene row")
		}
		var decl gene.Declaration
		if err := json.Unmarshal(raw, &decl); err != nil {
			return nil, mfaerr.Wrap(err, mfaerr.CodeInternal, "model repo: unmarshal gene declaration")
		}
		out = append(out, decl)
	}
	return out, rows.Err()
}

func (r *postgresModelRepo) SaveRun(ctx context.Context, modelID string, runID ids.RunID, kind string, sol model.OptSolutionData) error {
	solutionValues, err := json.Marshal(sol.Values)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeInternal, "model repo: marshal run values")
	}
	annotations, err := json.Marshal(sol.Annotations)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeInternal, "model repo: marshal run annotations")
	}

	_, err = r.executor.Exec(ctx, `
		INSERT INTO run_history (run_id, model_id, kind, status, objective_value, solution_values, annotations)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE
		SET status = EXCLUDED.status, objective_value = EXCLUDED.objective_value,
		    solution_values = EXCLUDED.solution_values, annotations = EXCLUDED.annotations
	`, string(runID), modelID, kind, int(sol.Status), sol.ObjectiveValue, solutionValues, annotations)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: save run "+string(runID))
	}
	return nil
}

func (r *postgresModelRepo) GetRun(ctx context.Context, runID ids.RunID) (model.OptSolutionData, error) {
	var status int
	var objective float64
	var solutionValues, annotations []byte

	err := r.executor.QueryRow(ctx, `
		SELECT status, objective_value, solution_values, annotations FROM run_history WHERE run_id = $1
	`, string(runID)).Scan(&status, &objective, &solutionValues, &annotations)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.OptSolutionData{}, mfaerr.New(mfaerr.CodeNotFound, "model repo: no run "+string(runID))
		}
		return model.OptSolutionData{}, mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: get run "+string(runID))
	}

	sol := model.OptSolutionData{Status: model.SolutionStatus(status), ObjectiveValue: objective}
	if err := json.Unmarshal(solutionValues, &sol.Values); err != nil {
		return model.OptSolutionData{}, mfaerr.Wrap(err, mfaerr.CodeInternal, "model repo: unmarshal run values")
	}
	if err := json.Unmarshal(annotations, &sol.Annotations); err != nil {
		return model.OptSolutionData{}, mfaerr.Wrap(err, mfaerr.CodeInternal, "model repo: unmarshal run annotations")
	}
	return sol, nil
}

func (r *postgresModelRepo) ListRuns(ctx context.Context, modelID string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.executor.Query(ctx, `
		SELECT run_id, kind, status, objective_value FROM run_history
		WHERE model_id = $1 ORDER BY created_at DESC LIMIT $2
	`, modelID, limit)
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: list runs")
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var runID, kind string
		var status int
		var objective float64
		if err := rows.Scan(&runID, &kind, &status, &objective); err != nil {
			return nil, mfaerr.Wrap(err, mfaerr.CodeDBQueryError, "model repo: scan run summary")
		}
		out = append(out, RunSummary{
			RunID:          ids.RunID(runID),
			Kind:           kind,
			Status:         model.SolutionStatus(status),
			ObjectiveValue: objective,
		})
	}
	return out, rows.Err()
}
