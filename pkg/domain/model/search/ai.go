package search

// Condition is one advisory filter triple reported by the translator.
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// AIQueryResult is the structured output of the natural-language translator.
// When Success is false, GeneratedQuery must not be executed.
type AIQueryResult struct {
	Success        bool        `json:"success"`
	GeneratedQuery string      `json:"sql_query"`
	Conditions     []Condition `json:"conditions"`
}

// Failed is the result used for every translation failure.
func Failed() *AIQueryResult {
	return &AIQueryResult{Success: false, Conditions: []Condition{}}
}

// Executable reports whether the generated query may be handed to the executor.
func (x *AIQueryResult) Executable() bool {
	return x != nil && x.Success && x.GeneratedQuery != ""
}
