package db

import (
	"context"
	"time"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/utils"
	a "gauge-automation/modules/aggregate"

	"github.com/chebyrash/promise"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Db interface {
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
}
type db struct {
	conf Config
	*mongo.Client
}

var _ a.Plugin = &db{}
var _ Db = &db{}

func New(conf Config) *db {
	if conf.Timeout == 0 {
		conf.Timeout = 10 * time.Second
	}
	return &db{conf: conf}
}

// Init creates the client. The driver connects lazily, the deployment is
// first contacted in Start.
func (db *db) Init() error {
	if !db.conf.Enabled() {
		return errors.ConfigurationError.Clone().SetData("field", "MongoURL")
	}
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI(db.conf.URI).
		SetServerSelectionTimeout(db.conf.Timeout))
	if err != nil {
		return errors.ConfigurationError.Clone().SetData("error", err)
	}
	db.Client = client
	return nil
}

func (db *db) Start() *promise.Promise[any] {
	return utils.PromiseGo(func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), db.conf.Timeout)
		defer cancel()
		if err := db.Ping(ctx, readpref.Primary()); err != nil {
			return nil, errors.TransientNetworkError.Clone().
				SetData("db", "mongo").
				SetData("error", err)
		}
		return nil, nil
	})
}

func (db *db) Stop() error {
	if db.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), db.conf.Timeout)
	defer cancel()
	return db.Disconnect(ctx)
}
