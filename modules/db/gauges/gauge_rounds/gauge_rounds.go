package gauge_rounds

import (
	"context"
	goerrors "errors"

	a "gauge-automation/modules/aggregate"
	"gauge-automation/modules/db"
	"gauge-automation/modules/db/gauges"
	"gauge-automation/modules/rounds"

	"github.com/moznion/go-optional"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type GaugeRounds interface {
	a.Plugin
	// Upsert stores r under its end timestamp.
	Upsert(ctx context.Context, r *rounds.Round) error
	Get(ctx context.Context, end int64) (optional.Option[rounds.Round], error)
	Latest(ctx context.Context) (optional.Option[rounds.Round], error)
}

type gaugeRounds struct {
	*db.Collection
}

func New(d *gauges.GaugeDb) GaugeRounds {
	return &gaugeRounds{db.NewCollection(d.DbInstance, "rounds", mongo.IndexModel{
		Keys: bson.D{{Key: "startTimestamp", Value: 1}},
	})}
}

func (g *gaugeRounds) Upsert(ctx context.Context, r *rounds.Round) error {
	_, err := g.ReplaceOne(ctx, bson.M{"_id": r.EndTimestamp}, r, options.Replace().SetUpsert(true))
	return err
}

func (g *gaugeRounds) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (optional.Option[rounds.Round], error) {
	var r rounds.Round
	err := g.FindOne(ctx, filter, opts...).Decode(&r)
	if goerrors.Is(err, mongo.ErrNoDocuments) {
		return optional.None[rounds.Round](), nil
	}
	if err != nil {
		return nil, err
	}
	return optional.Some(r), nil
}

func (g *gaugeRounds) Get(ctx context.Context, end int64) (optional.Option[rounds.Round], error) {
	return g.findOne(ctx, bson.M{"_id": end})
}

func (g *gaugeRounds) Latest(ctx context.Context) (optional.Option[rounds.Round], error) {
	return g.findOne(ctx, bson.M{}, options.FindOne().SetSort(bson.M{"_id": -1}))
}
