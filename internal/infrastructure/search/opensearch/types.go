package opensearch

// IndexMapping is the settings/mappings body sent to IndicesCreateRequest.
type IndexMapping struct {
	Settings map[string]interface{} `json:"settings"`
	Mappings map[string]interface{} `json:"mappings"`
}

// BulkResult summarizes a BulkIndex call.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    []BulkItemError
}

// BulkItemError records one document's failure within a bulk request.
type BulkItemError struct {
	DocID     string
	ErrorType string
	Reason    string
}
