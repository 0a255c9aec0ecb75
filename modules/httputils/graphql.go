package httputils

import (
	"context"

	"gauge-automation/lib/errors"

	"github.com/hasura/go-graphql-client"
)

func NewGraphQLClient(url string, doer Doer) *graphql.Client {
	return graphql.NewClient(url, doer)
}

// Query runs a named GraphQL query. Every failure is reported as a
// TransientNetworkError since the retrying transport already gave up on it.
func Query(
	ctx context.Context,
	client *graphql.Client,
	q any,
	variables map[string]any,
	operationName string,
) error {
	err := client.Query(ctx, q, variables, graphql.OperationName(operationName))
	if err != nil {
		return errors.TransientNetworkError.Clone().
			SetData("operation", operationName).
			SetData("error", err)
	}
	return nil
}
