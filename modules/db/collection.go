package db

import (
	"context"
	"fmt"

	"gauge-automation/lib/utils"
	a "gauge-automation/modules/aggregate"

	"github.com/chebyrash/promise"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is resolved from its database on Init and creates its indexes
// on Start.
type Collection struct {
	*mongo.Collection

	db      *DbInstance
	name    string
	indexes []mongo.IndexModel
}

var _ a.Plugin = &Collection{}

func NewCollection(db *DbInstance, name string, indexes ...mongo.IndexModel) *Collection {
	return &Collection{
		nil,
		db,
		name,
		indexes,
	}
}

// Init implements aggregate.Plugin.
func (c *Collection) Init() error {
	c.Collection = c.db.Collection(c.name)
	return nil
}

// Start implements aggregate.Plugin.
func (c *Collection) Start() *promise.Promise[any] {
	if len(c.indexes) == 0 {
		return utils.PromiseResolve[any](nil)
	}
	return utils.PromiseGo(func() (any, error) {
		_, err := c.Indexes().CreateMany(context.Background(), c.indexes)
		if err != nil {
			return nil, fmt.Errorf("failed to create indexes of %s: %w", c.name, err)
		}
		return nil, nil
	})
}

// Stop implements aggregate.Plugin.
func (c *Collection) Stop() error {
	return nil
}
