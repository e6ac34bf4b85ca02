// Package testutil provides testing utilities for the character API client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines a scripted response for one page.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock of the character API. By default it serves
// a generated catalog of Total characters split into pages of PageSize.
type MockAPI struct {
	server *httptest.Server

	mu        sync.RWMutex
	total     int
	pageSize  int
	overrides map[int][]MockResponse

	// Tracking
	requestCount    int
	requestedPages  []int
	lastUserAgent   string
	lastAcceptValue string
}

// NewMockAPI starts a mock serving total characters in pages of pageSize.
func NewMockAPI(total, pageSize int) *MockAPI {
	if pageSize <= 0 {
		pageSize = 20
	}
	mock := &MockAPI{
		total:     total,
		pageSize:  pageSize,
		overrides: make(map[int][]MockResponse),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/character/", mock.handleCharacters)
	mock.server = httptest.NewServer(mux)
	return mock
}

// URL returns the server root.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// BaseURL returns the API root to configure a client with.
func (m *MockAPI) BaseURL() string {
	return m.server.URL + "/api/"
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Pages returns the number of pages of the generated catalog.
func (m *MockAPI) Pages() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return pageCount(m.total, m.pageSize)
}

// QueueResponse scripts the next response for a page. Queued responses are
// served once each, in order, before the generated catalog takes over again.
func (m *MockAPI) QueueResponse(page int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[page] = append(m.overrides[page], resp)
}

// RequestCount returns the number of requests made to the server.
func (m *MockAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// RequestedPages returns the page numbers requested, in arrival order.
func (m *MockAPI) RequestedPages() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.requestedPages...)
}

// LastUserAgent returns the User-Agent of the last request.
func (m *MockAPI) LastUserAgent() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUserAgent
}

// LastAccept returns the Accept header of the last request.
func (m *MockAPI) LastAccept() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAcceptValue
}

func (m *MockAPI) handleCharacters(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, `{"error":"invalid page"}`, http.StatusBadRequest)
			return
		}
		page = parsed
	}

	m.mu.Lock()
	m.requestCount++
	m.requestedPages = append(m.requestedPages, page)
	m.lastUserAgent = r.Header.Get("User-Agent")
	m.lastAcceptValue = r.Header.Get("Accept")
	var scripted *MockResponse
	if queue := m.overrides[page]; len(queue) > 0 {
		scripted = &queue[0]
		m.overrides[page] = queue[1:]
	}
	total, pageSize := m.total, m.pageSize
	m.mu.Unlock()

	if scripted != nil {
		writeScripted(w, *scripted)
		return
	}

	pages := pageCount(total, pageSize)
	if page < 1 || page > pages {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"There is nothing here"}`))
		return
	}

	body, err := json.Marshal(CatalogPage(m.BaseURL(), total, pageSize, page))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func writeScripted(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// CatalogPage builds the JSON document of one page of a generated catalog.
func CatalogPage(baseURL string, total, pageSize, page int) map[string]any {
	pages := pageCount(total, pageSize)

	var next, prev any
	if page < pages {
		next = fmt.Sprintf("%scharacter/?page=%d", baseURL, page+1)
	}
	if page > 1 {
		prev = fmt.Sprintf("%scharacter/?page=%d", baseURL, page-1)
	}

	results := make([]map[string]any, 0, pageSize)
	first := (page-1)*pageSize + 1
	for id := first; id < first+pageSize && id <= total; id++ {
		results = append(results, Record(baseURL, id))
	}

	return map[string]any{
		"info": map[string]any{
			"count": total,
			"pages": pages,
			"next":  next,
			"prev":  prev,
		},
		"results": results,
	}
}

// Record builds a generated character record for id.
func Record(baseURL string, id int) map[string]any {
	statuses := []string{"Alive", "Dead", "unknown"}
	genders := []string{"Female", "Male", "Genderless", "unknown"}
	return map[string]any{
		"id":       id,
		"name":     fmt.Sprintf("Character %d", id),
		"status":   statuses[id%len(statuses)],
		"species":  "Human",
		"type":     "",
		"gender":   genders[id%len(genders)],
		"origin":   map[string]any{"name": "Earth (C-137)", "url": baseURL + "location/1"},
		"location": map[string]any{"name": "Citadel of Ricks", "url": baseURL + "location/3"},
		"image":    fmt.Sprintf("%scharacter/avatar/%d.jpeg", baseURL, id),
		"episode":  []string{baseURL + "episode/1"},
		"url":      fmt.Sprintf("%scharacter/%d", baseURL, id),
		"created":  "2017-11-04T18:48:46.250Z",
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewMalformedResponse creates a 200 response whose body is not a listing.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"info": "not an object", "results": 5}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

func pageCount(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
