package delegation_test

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"gauge-automation/lib/datastore"
	"gauge-automation/lib/test_utils"
	"gauge-automation/modules/delegation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDelegationsPagination(t *testing.T) {
	all := make([]map[string]any, 0, 5)
	for i := 0; i < 5; i++ {
		all = append(all, map[string]any{
			"delegator": fmt.Sprintf("0xD%d", i),
			"delegate":  "0xA",
			"space":     space,
		})
	}

	srv := test_utils.NewGraphQLServer(t, func(req test_utils.GraphQLRequest) (any, error) {
		skip := min(req.IntVar("skip"), len(all))
		end := min(skip+req.IntVar("first"), len(all))
		return map[string]any{"delegations": all[skip:end]}, nil
	})

	cache := datastore.New(filepath.Join(t.TempDir(), "cache"))
	test_utils.RunPlugin(t, cache)

	c := delegation.NewSubgraphClient(srv.URL, http.DefaultClient, 2, cache, zaptest.NewLogger(t))
	edges, err := c.Delegations(context.Background(), 100, []string{space, ""})
	require.NoError(t, err)
	require.Len(t, edges, 5)
	assert.Equal(t, "0xD4", edges[4].Delegator)

	reqs := srv.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, 100, reqs[0].IntVar("block"))
	assert.Equal(t, []any{space, ""}, reqs[0].Variables["spaces"])
	assert.Equal(t, 4, reqs[2].IntVar("skip"))

	// a second read at the same block is served from the cache
	again, err := c.Delegations(context.Background(), 100, []string{space, ""})
	require.NoError(t, err)
	assert.Equal(t, edges, again)
	assert.Len(t, srv.Requests(), 3)
}

func TestDelegationsExactPage(t *testing.T) {
	srv := test_utils.NewGraphQLServer(t, func(req test_utils.GraphQLRequest) (any, error) {
		if req.IntVar("skip") > 0 {
			return map[string]any{"delegations": []any{}}, nil
		}
		return map[string]any{"delegations": []map[string]any{
			{"delegator": "0xD1", "delegate": "0xA", "space": ""},
			{"delegator": "0xD2", "delegate": "0xA", "space": ""},
		}}, nil
	})

	c := delegation.NewSubgraphClient(srv.URL, http.DefaultClient, 2, datastore.New(""), nil)
	edges, err := c.Delegations(context.Background(), 7, []string{space, ""})
	require.NoError(t, err)
	assert.Len(t, edges, 2)
	assert.Len(t, srv.Requests(), 2)
}
