package milvus

// CollectionSchema describes a collection to create. Fields holds
// *entity.Field values; kept as interface{} here so this package's
// callers never need to import the Milvus entity package directly.
type CollectionSchema struct {
	Name               string
	Description        string
	Fields             []interface{}
	EnableDynamicField bool
}

// IndexConfig describes a vector index to build on one field.
type IndexConfig struct {
	FieldName  string
	IndexType  string
	MetricType string
}

// VectorHit is one result row from a similarity search.
type VectorHit struct {
	ID     int64
	Score  float32
	Fields map[string]interface{}
}

// InsertRequest carries rows to write into a collection.
type InsertRequest struct {
	CollectionName string
	Data           []map[string]interface{}
}

// InsertResult reports the outcome of an Insert/Upsert call.
type InsertResult struct {
	IDs           []int64
	InsertedCount int64
}

// VectorSearchRequest defines a similarity search against one collection.
type VectorSearchRequest struct {
	CollectionName      string
	VectorFieldName     string
	Vectors             [][]float32
	TopK                int
	MetricType          string
	Filters             string
	OutputFields        []string
	SearchParams        map[string]interface{}
	GuaranteeTimestamp  uint64
}

// VectorSearchResult holds one hit list per query vector.
type VectorSearchResult struct {
	Results [][]VectorHit
	TookMs  int64
}
