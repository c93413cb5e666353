// Package proto defines the request/response message types exchanged over
// the stats daemon's JSON-over-TCP RPC layer (see pkg/grpc). They are
// hand-written rather than generated because the RPC surface is small and
// entirely internal.
package proto

// HealthCheckResponse mirrors the gRPC health check spec.
type HealthCheckResponse struct {
	Status string `json:"status"` // SERVING, NOT_SERVING, UNKNOWN
}

// ---------- Build ----------

// BuildRequest asks the build daemon to construct or rebuild a forward
// index from a corpus configuration file.
type BuildRequest struct {
	Prefix     string `json:"prefix"`
	Dataset    string `json:"dataset"`
	ConfigPath string `json:"config_path"`
}

// BuildResponse reports the outcome of a build request.
type BuildResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	NumDocs     uint64 `json:"num_docs"`
	UniqueTerms uint64 `json:"unique_terms"`
}

// ---------- Stats ----------

// StatsRequest carries no fields; it asks for whole-index statistics.
type StatsRequest struct{}

// StatsResponse contains forward-index-level statistics.
type StatsResponse struct {
	NumDocs         uint64 `json:"num_docs"`
	UniqueTerms     uint64 `json:"unique_terms"`
	TotalPostings   uint64 `json:"total_postings"`
	AvgDocLength    float64 `json:"avg_doc_length"`
	Uninverted      bool   `json:"uninverted"`
}

// SearchPrimaryRequest asks for the postings of one document.
type SearchPrimaryRequest struct {
	DocID uint64 `json:"doc_id"`
}

// Posting is a single (term_id, weight) pair.
type Posting struct {
	TermID uint64  `json:"term_id"`
	Weight float64 `json:"weight"`
}

// SearchPrimaryResponse returns the packed postings for a document.
type SearchPrimaryResponse struct {
	DocID    uint64    `json:"doc_id"`
	Postings []Posting `json:"postings"`
}

// LiblinearDataRequest asks for the liblinear-formatted line for one
// document.
type LiblinearDataRequest struct {
	DocID uint64 `json:"doc_id"`
}

// LiblinearDataResponse returns the "label idx:weight ..." line.
type LiblinearDataResponse struct {
	Line string `json:"line"`
}
