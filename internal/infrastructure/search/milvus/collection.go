package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/turtacn/mfa-engine/internal/config"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

var (
	ErrCollectionAlreadyExists = mfaerr.New(mfaerr.CodeConflict, "collection already exists")
	ErrCollectionNotFound      = mfaerr.New(mfaerr.CodeNotFound, "collection not found")
)

// CollectionConfig holds configuration for the CollectionManager.
type CollectionConfig struct {
	ShardsNum         int32
	ConsistencyLevel  entity.ConsistencyLevel
	DefaultIndexType  entity.IndexType
	DefaultMetricType entity.MetricType
	DefaultNList      int
	HNSWM             int
	HNSWEfConstruction int
	LoadTimeout       time.Duration
	IndexBuildTimeout time.Duration
}

// CollectionManager manages Milvus collections.
type CollectionManager struct {
	client *Client
	config CollectionConfig
	logger logging.Logger
}

// NewCollectionManager creates a new CollectionManager.
func NewCollectionManager(client *Client, cfg CollectionConfig, logger logging.Logger) *CollectionManager {
	if cfg.ShardsNum == 0 {
		cfg.ShardsNum = 2
	}
	if cfg.ConsistencyLevel == 0 {
		cfg.ConsistencyLevel = entity.ClBounded
	}
	if cfg.DefaultIndexType == "" {
		cfg.DefaultIndexType = entity.IvfFlat
	}
	if cfg.DefaultMetricType == "" {
		cfg.DefaultMetricType = entity.COSINE
	}
	if cfg.DefaultNList == 0 {
		cfg.DefaultNList = 1024
	}
	if cfg.HNSWM == 0 {
		cfg.HNSWM = 16
	}
	if cfg.HNSWEfConstruction == 0 {
		cfg.HNSWEfConstruction = 200
	}
	if cfg.LoadTimeout == 0 {
		cfg.LoadTimeout = 120 * time.Second
	}
	if cfg.IndexBuildTimeout == 0 {
		cfg.IndexBuildTimeout = 300 * time.Second
	}

	return &CollectionManager{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// NewCollectionManagerFromConfig adapts config.MilvusConfig's index-tuning
// knobs onto CollectionConfig. Ranking gap-fill candidates by structural or
// embedding similarity is an HNSW workload, so DefaultIndexType defaults to
// entity.HNSW whenever cfg.IndexType names it.
func NewCollectionManagerFromConfig(client *Client, cfg config.MilvusConfig, logger logging.Logger) *CollectionManager {
	collCfg := CollectionConfig{
		DefaultMetricType:  entity.COSINE,
		HNSWM:              cfg.HNSWM,
		HNSWEfConstruction: cfg.HNSWEfConstruction,
	}
	if cfg.IndexType == "HNSW" {
		collCfg.DefaultIndexType = entity.HNSW
	}
	return NewCollectionManager(client, collCfg, logger)
}

// CreateCollection creates a new collection.
func (m *CollectionManager) CreateCollection(ctx context.Context, schema CollectionSchema) error {
	has, err := m.HasCollection(ctx, schema.Name)
	if err != nil {
		return err
	}
	if has {
		return ErrCollectionAlreadyExists
	}

	// Convert CollectionSchema to entity.Schema
	fields := make([]*entity.Field, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		if field, ok := f.(*entity.Field); ok {
			fields = append(fields, field)
		} else {
			return mfaerr.New(mfaerr.CodeInvalidParam, "invalid field type in schema")
		}
	}

	s := &entity.Schema{
		CollectionName:     schema.Name,
		Description:        schema.Description,
		Fields:             fields,
		EnableDynamicField: schema.EnableDynamicField,
	}

	err = m.client.GetMilvusClient().CreateCollection(ctx, s, m.config.ShardsNum)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeSearchError, "failed to create collection")
	}

	m.logger.Info("Collection created", logging.String("name", schema.Name))
	return nil
}

// DropCollection drops a collection.
func (m *CollectionManager) DropCollection(ctx context.Context, name string) error {
	has, err := m.HasCollection(ctx, name)
	if err != nil {
		return err
	}
	if !has {
		return ErrCollectionNotFound
	}

	err = m.client.GetMilvusClient().DropCollection(ctx, name)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeSearchError, "failed to drop collection")
	}

	m.logger.Warn("Collection dropped", logging.String("name", name))
	return nil
}

// HasCollection checks if a collection exists.
func (m *CollectionManager) HasCollection(ctx context.Context, name string) (bool, error) {
	has, err := m.client.GetMilvusClient().HasCollection(ctx, name)
	if err != nil {
		return false, mfaerr.Wrap(err, mfaerr.CodeSearchError, "failed to check collection existence")
	}
	return has, nil
}

// CollectionInfo holds collection metadata.
type CollectionInfo struct {
	Name             string
	Description      string
	Fields           []*entity.Field
	ShardsNum        int32
	ConsistencyLevel entity.ConsistencyLevel
	RowCount         int64
	CreatedTimestamp uint64
}

// DescribeCollection returns collection details.
func (m *CollectionManager) DescribeCollection(ctx context.Context, name string) (*CollectionInfo, error) {
	coll, err := m.client.GetMilvusClient().DescribeCollection(ctx, name)
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeSearchError, "failed to describe collection")
	}

	var desc string
	var fields []*entity.Field
	if coll.Schema != nil {
		desc = coll.Schema.Description
		fields = coll.Schema.Fields
	}

	return &CollectionInfo{
		Name:             coll.Name,
		Description:      desc,
		Fields:           fields,
		ConsistencyLevel: coll.ConsistencyLevel,
		RowCount:         0, // Placeholder
		CreatedTimestamp: 0,
	}, nil
}

// CreateIndex creates an index for a field.
func (m *CollectionManager) CreateIndex(ctx context.Context, collectionName string, indexCfg IndexConfig) error {
	var idx entity.Index
	var err error

	metricType := entity.MetricType(indexCfg.MetricType)
	if metricType == "" {
		metricType = m.config.DefaultMetricType
	}

	switch indexCfg.IndexType {
	case "HNSW":
		idx, err = entity.NewIndexHNSW(metricType, m.config.HNSWM, m.config.HNSWEfConstruction)
	case "", "IVF_FLAT":
		idx, err = entity.NewIndexIvfFlat(metricType, m.config.DefaultNList)
	default:
		idx, err = entity.NewIndexIvfFlat(metricType, m.config.DefaultNList)
	}

	if err != nil {
		return err
	}

	err = m.client.GetMilvusClient().CreateIndex(ctx, collectionName, indexCfg.FieldName, idx, false)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeSearchError, "failed to create index")
	}

	m.logger.Info("Index created", logging.String("collection", collectionName), logging.String("field", indexCfg.FieldName))
	return nil
}

// DropIndex drops an index.
func (m *CollectionManager) DropIndex(ctx context.Context, collectionName string, fieldName string) error {
	err := m.client.GetMilvusClient().DropIndex(ctx, collectionName, fieldName)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeSearchError, "failed to drop index")
	}
	return nil
}

// LoadCollection loads a collection into memory.
func (m *CollectionManager) LoadCollection(ctx context.Context, name string) error {
	err := m.client.GetMilvusClient().LoadCollection(ctx, name, false)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeSearchError, "failed to load collection")
	}
	m.logger.Info("Collection loaded", logging.String("name", name))
	return nil
}

// ReleaseCollection releases a collection from memory.
func (m *CollectionManager) ReleaseCollection(ctx context.Context, name string) error {
	err := m.client.GetMilvusClient().ReleaseCollection(ctx, name)
	if err != nil {
		return mfaerr.Wrap(err, mfaerr.CodeSearchError, "failed to release collection")
	}
	m.logger.Info("Collection released", logging.String("name", name))
	return nil
}

// GetLoadState returns the load state of a collection.
func (m *CollectionManager) GetLoadState(ctx context.Context, name string) (string, error) {
	progress, err := m.client.GetMilvusClient().GetLoadingProgress(ctx, name, nil)
	if err != nil {
		return "", mfaerr.Wrap(err, mfaerr.CodeSearchError, "failed to get load state")
	}
	if progress >= 100 {
		return "Loaded", nil
	}
	if progress > 0 {
		return "Loading", nil
	}
	return "NotLoaded", nil
}

// EnsureCollection ensures a collection exists and is loaded.
func (m *CollectionManager) EnsureCollection(ctx context.Context, schema CollectionSchema, indexConfigs []IndexConfig) error {
	exists, err := m.HasCollection(ctx, schema.Name)
	if err != nil {
		return err
	}

	if !exists {
		if err := m.CreateCollection(ctx, schema); err != nil {
			return err
		}
	}

	for _, idxCfg := range indexConfigs {
		if err := m.CreateIndex(ctx, schema.Name, idxCfg); err != nil {
			m.logger.Warn("CreateIndex failed (might exist)", logging.Err(err))
		}
	}

	if err := m.LoadCollection(ctx, schema.Name); err != nil {
		return err
	}

	return nil
}

// Predefined Schemas

// ReactionCandidateSchema describes the collection that ranks gap-fill
// candidate reactions by structural/embedding similarity. embeddingDim
// should come from config.MilvusConfig.EmbeddingDim.
func ReactionCandidateSchema(embeddingDim int) CollectionSchema {
	dim := fmt.Sprintf("%d", embeddingDim)
	fields := []*entity.Field{
		{Name: "id", DataType: entity.FieldTypeInt64, PrimaryKey: true, AutoID: false},
		{Name: "reaction_id", DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "64"}},
		{Name: "embedding", DataType: entity.FieldTypeFloatVector, TypeParams: map[string]string{"dim": dim}},
		{Name: "subsystem", DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "128"}, IsPartitionKey: true},
		{Name: "ec_number", DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "32"}},
		{Name: "source_model_id", DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "64"}},
	}
	ifaces := make([]interface{}, len(fields))
	for i, f := range fields {
		ifaces[i] = f
	}
	return CollectionSchema{
		Name:        "reaction_candidates",
		Description: "candidate reaction embeddings for gap-fill similarity ranking",
		Fields:      ifaces,
	}
}

// CompoundCandidateSchema describes the collection that ranks candidate
// compounds by structural similarity, used when gap-fill needs to match an
// unresolved metabolite against known compound embeddings.
func CompoundCandidateSchema(embeddingDim int) CollectionSchema {
	dim := fmt.Sprintf("%d", embeddingDim)
	fields := []*entity.Field{
		{Name: "id", DataType: entity.FieldTypeInt64, PrimaryKey: true, AutoID: false},
		{Name: "compound_id", DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "64"}},
		{Name: "embedding", DataType: entity.FieldTypeFloatVector, TypeParams: map[string]string{"dim": dim}},
		{Name: "formula", DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "64"}},
		{Name: "source_model_id", DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "64"}},
	}
	ifaces := make([]interface{}, len(fields))
	for i, f := range fields {
		ifaces[i] = f
	}
	return CollectionSchema{
		Name:        "compound_candidates",
		Description: "candidate compound embeddings for structural similarity ranking",
		Fields:      ifaces,
	}
}
