//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package server

import (
	"net/http"
)

// OpenAPISpec represents the OpenAPI v3 specification.
type OpenAPISpec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       OpenAPIInfo            `json:"info"`
	Servers    []OpenAPIServer        `json:"servers"`
	Paths      map[string]OpenAPIPath `json:"paths"`
	Components OpenAPIComponents      `json:"components"`
}

// OpenAPIInfo contains API metadata.
type OpenAPIInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

// OpenAPIServer describes a server.
type OpenAPIServer struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// OpenAPIPath contains operations for a path.
type OpenAPIPath struct {
	Get    *OpenAPIOperation `json:"get,omitempty"`
	Post   *OpenAPIOperation `json:"post,omitempty"`
	Put    *OpenAPIOperation `json:"put,omitempty"`
	Delete *OpenAPIOperation `json:"delete,omitempty"`
}

// OpenAPIOperation describes an API operation.
type OpenAPIOperation struct {
	Summary     string                     `json:"summary"`
	Description string                     `json:"description,omitempty"`
	OperationID string                     `json:"operationId"`
	Tags        []string                   `json:"tags,omitempty"`
	Parameters  []OpenAPIParameter         `json:"parameters,omitempty"`
	RequestBody *OpenAPIRequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]OpenAPIResponse `json:"responses"`
}

// OpenAPIParameter describes a parameter.
type OpenAPIParameter struct {
	Name        string        `json:"name"`
	In          string        `json:"in"`
	Description string        `json:"description,omitempty"`
	Required    bool          `json:"required"`
	Schema      OpenAPISchema `json:"schema"`
}

// OpenAPIRequestBody describes a request body.
type OpenAPIRequestBody struct {
	Description string                      `json:"description,omitempty"`
	Required    bool                        `json:"required"`
	Content     map[string]OpenAPIMediaType `json:"content"`
}

// OpenAPIResponse describes a response.
type OpenAPIResponse struct {
	Description string                      `json:"description"`
	Content     map[string]OpenAPIMediaType `json:"content,omitempty"`
}

// OpenAPIMediaType describes a media type.
type OpenAPIMediaType struct {
	Schema OpenAPISchema `json:"schema"`
}

// OpenAPISchema describes a schema.
type OpenAPISchema struct {
	Type        string                   `json:"type,omitempty"`
	Format      string                   `json:"format,omitempty"`
	Description string                   `json:"description,omitempty"`
	Properties  map[string]OpenAPISchema `json:"properties,omitempty"`
	Items       *OpenAPISchema           `json:"items,omitempty"`
	Required    []string                 `json:"required,omitempty"`
	Default     any                      `json:"default,omitempty"`
	Ref         string                   `json:"$ref,omitempty"`
}

// OpenAPIComponents contains reusable components.
type OpenAPIComponents struct {
	Schemas map[string]OpenAPISchema `json:"schemas"`
}

// handleOpenAPI handles the GET /v1/openapi.json endpoint.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, BuildOpenAPISpec())
}

func jsonContent(ref string) map[string]OpenAPIMediaType {
	return map[string]OpenAPIMediaType{
		"application/json": {
			Schema: OpenAPISchema{Ref: "#/components/schemas/" + ref},
		},
	}
}

func jsonBody(description, ref string) *OpenAPIRequestBody {
	return &OpenAPIRequestBody{
		Description: description,
		Required:    true,
		Content:     jsonContent(ref),
	}
}

func errorResponse(description string) OpenAPIResponse {
	return OpenAPIResponse{
		Description: description,
		Content:     jsonContent("ErrorResponse"),
	}
}

func rankedDocumentsResponse() map[string]OpenAPIResponse {
	return map[string]OpenAPIResponse{
		"200": {
			Description: "Documents ordered by relevance",
			Content:     jsonContent("RerankResponse"),
		},
		"400": errorResponse("Invalid request"),
		"500": errorResponse("Server error"),
	}
}

// BuildOpenAPISpec constructs the OpenAPI v3 specification.
// This is exported so it can be used to generate static documentation.
func BuildOpenAPISpec() OpenAPISpec {
	sourceRerank := rankedDocumentsResponse()
	sourceRerank["404"] = errorResponse("Source not found")
	sourceRerank["502"] = errorResponse("Documents could not be fetched")

	return OpenAPISpec{
		OpenAPI: "3.0.3",
		Info: OpenAPIInfo{
			Title:       "pgEdge Rerank Server API",
			Description: "REST API for lexical BM25 reranking of retrieval candidates",
			Version:     "1.0.0",
		},
		Servers: []OpenAPIServer{
			{
				URL:         "/v1",
				Description: "API v1",
			},
		},
		Paths: map[string]OpenAPIPath{
			"/health": {
				Get: &OpenAPIOperation{
					Summary:     "Health check",
					Description: "Check that the server is running and its sources are reachable",
					OperationID: "getHealth",
					Tags:        []string{"System"},
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "Server is healthy",
							Content:     jsonContent("HealthResponse"),
						},
						"503": {
							Description: "A source is unreachable",
							Content:     jsonContent("HealthResponse"),
						},
					},
				},
			},
			"/rerank": {
				Post: &OpenAPIOperation{
					Summary:     "Rerank documents",
					Description: "Order candidate documents by BM25 relevance to the query and keep the top results",
					OperationID: "rerank",
					Tags:        []string{"Rerank"},
					RequestBody: jsonBody("Rerank request", "RerankRequest"),
					Responses:   rankedDocumentsResponse(),
				},
			},
			"/rerank/batch": {
				Post: &OpenAPIOperation{
					Summary:     "Rerank in batch",
					Description: "Run several independent rerank requests; each entry reports its own result or error",
					OperationID: "rerankBatch",
					Tags:        []string{"Rerank"},
					RequestBody: jsonBody("Batch of rerank requests", "BatchRerankRequest"),
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "Per-request results in request order",
							Content:     jsonContent("BatchRerankResponse"),
						},
						"400": errorResponse("Invalid request"),
						"503": errorResponse("Batch reranking is not enabled"),
					},
				},
			},
			"/detect": {
				Post: &OpenAPIOperation{
					Summary:     "Detect language",
					Description: "Report the detected language of a text and the terms it is indexed under",
					OperationID: "detect",
					Tags:        []string{"Analysis"},
					RequestBody: jsonBody("Text to analyze", "DetectRequest"),
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "Detected language and tokens",
							Content:     jsonContent("DetectResponse"),
						},
						"400": errorResponse("Invalid request"),
					},
				},
			},
			"/sources": {
				Get: &OpenAPIOperation{
					Summary:     "List sources",
					Description: "Get the configured document sources",
					OperationID: "listSources",
					Tags:        []string{"Sources"},
					Responses: map[string]OpenAPIResponse{
						"200": {
							Description: "List of sources",
							Content:     jsonContent("SourcesResponse"),
						},
					},
				},
			},
			"/sources/{name}/rerank": {
				Post: &OpenAPIOperation{
					Summary:     "Rerank source documents",
					Description: "Fetch documents from a source by ID and rerank them",
					OperationID: "rerankSource",
					Tags:        []string{"Sources"},
					Parameters: []OpenAPIParameter{
						{
							Name:        "name",
							In:          "path",
							Description: "Source name",
							Required:    true,
							Schema:      OpenAPISchema{Type: "string"},
						},
					},
					RequestBody: jsonBody("Source rerank request", "SourceRerankRequest"),
					Responses:   sourceRerank,
				},
			},
		},
		Components: OpenAPIComponents{
			Schemas: map[string]OpenAPISchema{
				"HealthResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"status": {
							Type:        "string",
							Description: "healthy or degraded",
						},
						"sources": {
							Type:        "object",
							Description: "Reachability of each source (ok or unavailable)",
						},
					},
					Required: []string{"status"},
				},
				"Document": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"id": {
							Type:        "string",
							Description: "Caller-defined identifier",
						},
						"content": {
							Type:        "string",
							Description: "Document text",
						},
						"metadata": {
							Type:        "object",
							Description: "Opaque metadata returned unchanged",
						},
					},
					Required: []string{"content"},
				},
				"RankedDocument": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"id":       {Type: "string"},
						"content":  {Type: "string"},
						"metadata": {Type: "object"},
						"score": {
							Type:        "number",
							Format:      "double",
							Description: "BM25 score (only if include_scores=true)",
						},
					},
					Required: []string{"content"},
				},
				"RerankRequest": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"query": {
							Type:        "string",
							Description: "The query to rank against",
						},
						"limit": {
							Type:        "integer",
							Description: "Maximum number of documents to return (default from configuration)",
						},
						"documents": {
							Type:        "array",
							Description: "Candidate documents",
							Items:       &OpenAPISchema{Ref: "#/components/schemas/Document"},
						},
						"include_scores": {
							Type:    "boolean",
							Default: false,
						},
					},
					Required: []string{"query", "documents"},
				},
				"RerankResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"documents": {
							Type:  "array",
							Items: &OpenAPISchema{Ref: "#/components/schemas/RankedDocument"},
						},
					},
					Required: []string{"documents"},
				},
				"BatchRerankRequest": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"requests": {
							Type:  "array",
							Items: &OpenAPISchema{Ref: "#/components/schemas/RerankRequest"},
						},
					},
					Required: []string{"requests"},
				},
				"BatchRerankResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"results": {
							Type: "array",
							Items: &OpenAPISchema{
								Type: "object",
								Properties: map[string]OpenAPISchema{
									"documents": {
										Type:  "array",
										Items: &OpenAPISchema{Ref: "#/components/schemas/RankedDocument"},
									},
									"error": {Ref: "#/components/schemas/ErrorDetail"},
								},
							},
						},
					},
					Required: []string{"results"},
				},
				"SourceRerankRequest": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"query": {Type: "string"},
						"limit": {Type: "integer"},
						"ids": {
							Type:        "array",
							Description: "IDs of the candidate rows",
							Items:       &OpenAPISchema{Type: "string"},
						},
						"filter": {
							Type:        "object",
							Description: "Structured filter with conditions and logic, applied in addition to the source filter",
						},
						"include_scores": {Type: "boolean", Default: false},
					},
					Required: []string{"query", "ids"},
				},
				"SourcesResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"sources": {
							Type: "array",
							Items: &OpenAPISchema{
								Type: "object",
								Properties: map[string]OpenAPISchema{
									"name":        {Type: "string"},
									"description": {Type: "string"},
									"table":       {Type: "string"},
								},
								Required: []string{"name", "table"},
							},
						},
						"candidate_factor": {
							Type:        "integer",
							Description: "Candidates to retrieve per requested result",
						},
					},
					Required: []string{"sources", "candidate_factor"},
				},
				"DetectRequest": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"text": {Type: "string"},
					},
					Required: []string{"text"},
				},
				"DetectResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"language": {Type: "string", Description: "english or russian"},
						"iso_code": {Type: "string", Description: "ISO 639-1 code"},
						"tokens": {
							Type:  "array",
							Items: &OpenAPISchema{Type: "string"},
						},
					},
					Required: []string{"language", "iso_code", "tokens"},
				},
				"ErrorResponse": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"error": {
							Ref: "#/components/schemas/ErrorDetail",
						},
					},
					Required: []string{"error"},
				},
				"ErrorDetail": {
					Type: "object",
					Properties: map[string]OpenAPISchema{
						"code": {
							Type:        "string",
							Description: "Error code",
						},
						"message": {
							Type:        "string",
							Description: "Error message",
						},
					},
					Required: []string{"code", "message"},
				},
			},
		},
	}
}
