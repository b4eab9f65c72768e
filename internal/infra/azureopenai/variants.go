package azureopenai

// Request body schemas for the "bring your own data" feature across Azure
// OpenAI API revisions. Each variant is a complete, self-contained body;
// nothing is shared between attempts.

const (
	completionTemperature = 0.0
	completionMaxTokens   = 1000
	searchQueryType       = "simple"
	searchTopN            = 5
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	DataSources []dataSource  `json:"data_sources,omitempty"`
}

type dataSource struct {
	Type       string `json:"type"`
	Parameters any    `json:"parameters"`
}

type apiKeyAuth struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

// searchParams is the parameter shape for API version 2024-06-01 and later.
type searchParams struct {
	Endpoint        string     `json:"endpoint"`
	IndexName       string     `json:"index_name"`
	Authentication  apiKeyAuth `json:"authentication"`
	QueryType       string     `json:"query_type"`
	InScope         bool       `json:"in_scope"`
	TopNDocuments   int        `json:"top_n_documents"`
	RoleInformation string     `json:"role_information"`
}

// legacySearchParams matches preview API versions that still used the
// AzureCognitiveSearch source type.
type legacySearchParams struct {
	Endpoint       string     `json:"endpoint"`
	IndexName      string     `json:"index_name"`
	Authentication apiKeyAuth `json:"authentication"`
}

// flatSearchParams is the earliest shape, with the key passed directly
// instead of nested under an authentication object.
type flatSearchParams struct {
	Endpoint  string `json:"endpoint"`
	IndexName string `json:"index_name"`
	Key       string `json:"key"`
}

// variant is one candidate request body, tried in list order.
type variant struct {
	name   string
	search bool
	body   chatRequest
}

// buildVariants produces the candidate bodies in fixed priority order: the
// three search schemas newest-first when search is configured, then the bare
// completion that always closes the list. Variants are built fresh for every
// call, never cached.
func (c *Client) buildVariants(query string) []variant {
	base := func() chatRequest {
		return chatRequest{
			Messages: []chatMessage{
				{Role: "system", Content: c.systemPrompt},
				{Role: "user", Content: query},
			},
			Temperature: completionTemperature,
			MaxTokens:   completionMaxTokens,
		}
	}

	var variants []variant

	if c.search != nil {
		modern := base()
		modern.DataSources = []dataSource{{
			Type: "azure_search",
			Parameters: searchParams{
				Endpoint:        c.search.Endpoint,
				IndexName:       c.search.Index,
				Authentication:  apiKeyAuth{Type: "api_key", Key: c.search.APIKey},
				QueryType:       searchQueryType,
				InScope:         true,
				TopNDocuments:   searchTopN,
				RoleInformation: c.systemPrompt,
			},
		}}
		variants = append(variants, variant{name: "azure_search", search: true, body: modern})

		legacy := base()
		legacy.DataSources = []dataSource{{
			Type: "AzureCognitiveSearch",
			Parameters: legacySearchParams{
				Endpoint:       c.search.Endpoint,
				IndexName:      c.search.Index,
				Authentication: apiKeyAuth{Type: "api_key", Key: c.search.APIKey},
			},
		}}
		variants = append(variants, variant{name: "cognitive_search_legacy", search: true, body: legacy})

		flat := base()
		flat.DataSources = []dataSource{{
			Type: "azure_search",
			Parameters: flatSearchParams{
				Endpoint:  c.search.Endpoint,
				IndexName: c.search.Index,
				Key:       c.search.APIKey,
			},
		}}
		variants = append(variants, variant{name: "azure_search_flat", search: true, body: flat})
	}

	return append(variants, variant{name: "no_search", body: base()})
}
