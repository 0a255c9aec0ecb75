package test_utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"

	"gauge-automation/modules/aggregate"

	"github.com/stretchr/testify/assert"
)

type TestingT interface {
	assert.TestingT
	Cleanup(func())
}

// manages the lifecycle of a plugin
//
// inits -> starts -> stops upon test completion
func RunPlugin(t TestingT, plugin aggregate.Plugin) {
	assert.NoError(t, plugin.Init())
	t.Cleanup(func() {
		assert.NoError(t, plugin.Stop())
	})
	_, err := plugin.Start().Await(context.Background())
	assert.NoError(t, err)
}

// GraphQLRequest is a decoded GraphQL request as seen by GraphQLServer.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

// GraphQLResolver returns the `data` payload for a request, or an error that
// is sent back as a GraphQL error.
type GraphQLResolver func(req GraphQLRequest) (any, error)

var operationPattern = regexp.MustCompile(`^\s*query\s+(\w+)`)

// GraphQLServer is a fake GraphQL endpoint. Requests are recorded in order.
type GraphQLServer struct {
	*httptest.Server

	mtx      sync.Mutex
	requests []GraphQLRequest
}

func NewGraphQLServer(t TestingT, resolve GraphQLResolver) *GraphQLServer {
	s := &GraphQLServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GraphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.OperationName == "" {
			if m := operationPattern.FindStringSubmatch(req.Query); m != nil {
				req.OperationName = m[1]
			}
		}

		s.mtx.Lock()
		s.requests = append(s.requests, req)
		s.mtx.Unlock()

		w.Header().Set("Content-Type", "application/json")
		data, err := resolve(req)
		if err != nil {
			json.NewEncoder(w).Encode(map[string]any{
				"errors": []map[string]any{{"message": err.Error()}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *GraphQLServer) Requests() []GraphQLRequest {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return append([]GraphQLRequest(nil), s.requests...)
}

// IntVar reads a numeric variable, which arrives as a JSON number.
func (r GraphQLRequest) IntVar(name string) int {
	f, _ := r.Variables[name].(float64)
	return int(f)
}

func (r GraphQLRequest) StringVar(name string) string {
	s, _ := r.Variables[name].(string)
	return s
}
