package gauges

import (
	"context"

	a "gauge-automation/modules/aggregate"
	"gauge-automation/modules/db"

	"go.mongodb.org/mongo-driver/bson"
)

const DefaultDatabase = "gauge-automation"

type GaugeDb struct {
	*db.DbInstance
}

var _ a.Plugin = &GaugeDb{}

func New(d db.Db, name string) *GaugeDb {
	if name == "" {
		name = DefaultDatabase
	}
	return &GaugeDb{db.NewDbInstance(d, name)}
}

// Nuke empties every collection. Used by tests.
func (db *GaugeDb) Nuke() error {
	ctx := context.Background()

	colsNames, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return err
	}

	for _, colName := range colsNames {
		_, err := db.Collection(colName).DeleteMany(ctx, bson.M{})
		if err != nil {
			return err
		}
	}

	return nil
}
