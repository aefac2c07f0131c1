package types

// ReviewRequest is the payload for POST /v1/review.
type ReviewRequest struct {
	// Required source code to review.
	// example: func add(a, b int) int { return a + b }
	Code string `json:"code" example:"func add(a, b int) int { return a + b }"`
	// Aspect the review should concentrate on.
	// example: readability
	Focus string `json:"focus,omitempty" example:"readability"`
	// Programming language of the code.
	// example: go
	Language string `json:"language,omitempty" example:"go"`
}

// ReviewResponse is returned by POST /v1/review.
type ReviewResponse struct {
	// Raw suggestion text produced by the model.
	Suggestions string `json:"suggestions"`
}

// TestCasesRequest is the payload for POST /v1/testcases.
type TestCasesRequest struct {
	// Required description of the programming problem.
	// example: Given two integers, print their sum.
	Question string `json:"question" example:"Given two integers, print their sum."`
	// JSON template describing the shape of one test case.
	Format string `json:"format,omitempty"`
	// Number of cases to request. Passed to the model verbatim.
	// example: 10
	Count int `json:"count,omitempty" example:"10"`
}

// TestCasesResponse is returned by POST /v1/testcases.
type TestCasesResponse struct {
	// Full unprocessed model reply.
	Raw string `json:"raw"`
	// Cases extracted from the reply; null when extraction failed.
	Cases []TestCase `json:"cases"`
	// Extraction failure detail, empty on success.
	ExtractError string `json:"extract_error,omitempty"`
}

// GenerateRequest is the payload for POST /v1/generate.
type GenerateRequest struct {
	// Required free-form prompt.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
}

// GenerateResponse is returned by POST /v1/generate.
type GenerateResponse struct {
	// Raw model reply.
	Response string `json:"response"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
