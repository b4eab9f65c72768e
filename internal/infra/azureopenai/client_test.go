package azureopenai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings(endpoint string, search *SearchSettings) Settings {
	return Settings{
		Endpoint:     endpoint,
		APIKey:       "test-key",
		Deployment:   "gpt-4o",
		APIVersion:   "2024-06-01",
		SystemPrompt: "You are a helpful Loan agent that responds in Thai language",
		Search:       search,
	}
}

func searchSettings() *SearchSettings {
	return &SearchSettings{
		Endpoint: "https://mysearch.search.windows.net",
		APIKey:   "search-key",
		Index:    "loans",
	}
}

func completionResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		raw        string
		want       string
		recognized bool
	}{
		{"myresource.openai.azure.com/", "https://myresource.openai.azure.com", true},
		{"https://myresource.openai.azure.com", "https://myresource.openai.azure.com", true},
		{"https://myresource.openai.azure.com///", "https://myresource.openai.azure.com", true},
		{"http://localhost:8080/", "http://localhost:8080", false},
		{"llm.internal.example.com", "https://llm.internal.example.com", false},
	}

	for _, tt := range tests {
		got, recognized := NormalizeEndpoint(tt.raw)
		if got != tt.want {
			t.Errorf("NormalizeEndpoint(%q): got %q, want %q", tt.raw, got, tt.want)
		}
		if recognized != tt.recognized {
			t.Errorf("NormalizeEndpoint(%q): recognized %v, want %v", tt.raw, recognized, tt.recognized)
		}
	}
}

func TestBuildVariants_SearchConfigured(t *testing.T) {
	client := NewClient(testSettings("https://r.openai.azure.com", searchSettings()), discardLogger())

	variants := client.buildVariants("สวัสดี")
	wantOrder := []string{"azure_search", "cognitive_search_legacy", "azure_search_flat", "no_search"}
	if len(variants) != len(wantOrder) {
		t.Fatalf("got %d variants, want %d", len(variants), len(wantOrder))
	}
	for i, want := range wantOrder {
		if variants[i].name != want {
			t.Errorf("variant %d: got %s, want %s", i, variants[i].name, want)
		}
	}
	for _, v := range variants[:3] {
		if !v.search {
			t.Errorf("variant %s not marked as search-enabled", v.name)
		}
	}
	if variants[3].search {
		t.Error("fallback variant marked as search-enabled")
	}
}

func TestBuildVariants_NoSearch(t *testing.T) {
	client := NewClient(testSettings("https://r.openai.azure.com", nil), discardLogger())

	variants := client.buildVariants("hello")
	if len(variants) != 1 {
		t.Fatalf("got %d variants, want 1", len(variants))
	}
	if variants[0].name != "no_search" {
		t.Errorf("got %s, want no_search", variants[0].name)
	}
}

func TestBuildVariants_BodyShapes(t *testing.T) {
	client := NewClient(testSettings("https://r.openai.azure.com", searchSettings()), discardLogger())
	variants := client.buildVariants("q")

	bodies := make(map[string]string, len(variants))
	for _, v := range variants {
		raw, err := json.Marshal(v.body)
		if err != nil {
			t.Fatalf("marshaling %s: %v", v.name, err)
		}
		bodies[v.name] = string(raw)
	}

	modern := bodies["azure_search"]
	for _, want := range []string{
		`"type":"azure_search"`, `"query_type":"simple"`, `"in_scope":true`,
		`"top_n_documents":5`, `"role_information"`, `"authentication":{"type":"api_key","key":"search-key"}`,
	} {
		if !strings.Contains(modern, want) {
			t.Errorf("modern body missing %s: %s", want, modern)
		}
	}

	if !strings.Contains(bodies["cognitive_search_legacy"], `"type":"AzureCognitiveSearch"`) {
		t.Errorf("legacy body missing AzureCognitiveSearch type: %s", bodies["cognitive_search_legacy"])
	}
	if strings.Contains(bodies["cognitive_search_legacy"], "query_type") {
		t.Errorf("legacy body carries modern fields: %s", bodies["cognitive_search_legacy"])
	}

	flat := bodies["azure_search_flat"]
	if !strings.Contains(flat, `"key":"search-key"`) || strings.Contains(flat, "authentication") {
		t.Errorf("flat body should pass the key directly: %s", flat)
	}

	bare := bodies["no_search"]
	if strings.Contains(bare, "data_sources") {
		t.Errorf("fallback body carries data_sources: %s", bare)
	}
	for _, want := range []string{`"temperature":0`, `"max_tokens":1000`} {
		if !strings.Contains(bare, want) {
			t.Errorf("fallback body missing %s: %s", want, bare)
		}
	}
}

func TestComplete_FirstVariantSucceeds(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("api-key")
		json.NewEncoder(w).Encode(completionResponse("สวัสดีค่ะ"))
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL, searchSettings()), discardLogger())

	content, err := client.Complete(context.Background(), "สวัสดี")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "สวัสดีค่ะ" {
		t.Errorf("content: got %q", content)
	}
	if want := "/openai/deployments/gpt-4o/chat/completions?api-version=2024-06-01"; gotPath != want {
		t.Errorf("path: got %s, want %s", gotPath, want)
	}
	if gotKey != "test-key" {
		t.Errorf("api-key header: got %q", gotKey)
	}
}

func TestComplete_FallsThroughToThirdVariant(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "unsupported data source", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(completionResponse("answer via flat schema"))
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL, searchSettings()), discardLogger())

	content, err := client.Complete(context.Background(), "q")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "answer via flat schema" {
		t.Errorf("content: got %q", content)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestComplete_DegradesToBareCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "data_sources") {
			http.Error(w, "search index unreachable", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(completionResponse("plain answer"))
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL, searchSettings()), discardLogger())

	content, err := client.Complete(context.Background(), "q")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "plain answer" {
		t.Errorf("content: got %q", content)
	}
}

func TestComplete_AllVariantsExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL, searchSettings()), discardLogger())

	_, err := client.Complete(context.Background(), "q")
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *ExhaustedError, got %v", err)
	}

	wantOrder := []string{"azure_search", "cognitive_search_legacy", "azure_search_flat", "no_search"}
	if len(exhausted.Attempts) != len(wantOrder) {
		t.Fatalf("attempts: got %d, want %d", len(exhausted.Attempts), len(wantOrder))
	}
	for i, attempt := range exhausted.Attempts {
		if attempt.Variant != wantOrder[i] {
			t.Errorf("attempt %d: got %s, want %s", i, attempt.Variant, wantOrder[i])
		}
		if attempt.Status != http.StatusBadRequest {
			t.Errorf("attempt %d status: got %d, want 400", i, attempt.Status)
		}
	}
}

func TestComplete_MalformedBodyAdvances(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte("not json"))
			return
		}
		json.NewEncoder(w).Encode(completionResponse("recovered"))
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL, searchSettings()), discardLogger())

	content, err := client.Complete(context.Background(), "q")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "recovered" {
		t.Errorf("content: got %q", content)
	}
}

func TestComplete_ConnectionRefusedRecorded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(testSettings(server.URL, nil), discardLogger())

	_, err := client.Complete(context.Background(), "q")
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected *ExhaustedError, got %v", err)
	}
	if len(exhausted.Attempts) != 1 {
		t.Fatalf("attempts: got %d, want 1", len(exhausted.Attempts))
	}
	if exhausted.Attempts[0].Status != 0 {
		t.Errorf("transport failure should carry no HTTP status, got %d", exhausted.Attempts[0].Status)
	}
}

func TestProbe_StatusGuidance(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusNotFound, "deployment name"},
		{http.StatusUnauthorized, "API key"},
		{http.StatusForbidden, "permissions"},
		{http.StatusTooManyRequests, "status 429"},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))
		client := NewClient(testSettings(server.URL, nil), discardLogger())

		err := client.Probe(context.Background())
		if err == nil {
			t.Errorf("status %d: expected error", tt.status)
		} else if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("status %d: error %q missing %q", tt.status, err, tt.want)
		}
		server.Close()
	}
}

func TestProbe_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"max_tokens":10`) {
			t.Errorf("probe payload should cap tokens at 10: %s", body)
		}
		json.NewEncoder(w).Encode(completionResponse("Hi"))
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL, nil), discardLogger())
	if err := client.Probe(context.Background()); err != nil {
		t.Fatalf("Probe: %v", err)
	}
}
