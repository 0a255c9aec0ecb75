package vote_weights

import (
	"context"
	goerrors "errors"
	"time"

	a "gauge-automation/modules/aggregate"
	"gauge-automation/modules/db"
	"gauge-automation/modules/db/gauges"
	"gauge-automation/modules/export"

	"github.com/moznion/go-optional"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VoteWeights is the exported vote weights of one proposal.
type VoteWeights struct {
	ProposalID string                 `bson:"_id"`
	Space      string                 `bson:"space"`
	UpdatedAt  time.Time              `bson:"updated_at"`
	Rows       []export.VoteWeightRow `bson:"rows"`
}

type Store interface {
	a.Plugin
	// Replace overwrites the rows stored for the proposal.
	Replace(ctx context.Context, doc VoteWeights) error
	Get(ctx context.Context, proposalID string) (optional.Option[VoteWeights], error)
}

type voteWeights struct {
	*db.Collection
}

func New(d *gauges.GaugeDb) Store {
	return &voteWeights{db.NewCollection(d.DbInstance, "vote_weights", mongo.IndexModel{
		Keys: bson.D{{Key: "space", Value: 1}, {Key: "updated_at", Value: -1}},
	})}
}

func (v *voteWeights) Replace(ctx context.Context, doc VoteWeights) error {
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}
	if doc.Rows == nil {
		doc.Rows = []export.VoteWeightRow{}
	}
	_, err := v.ReplaceOne(ctx, bson.M{"_id": doc.ProposalID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (v *voteWeights) Get(ctx context.Context, proposalID string) (optional.Option[VoteWeights], error) {
	var doc VoteWeights
	err := v.FindOne(ctx, bson.M{"_id": proposalID}).Decode(&doc)
	if goerrors.Is(err, mongo.ErrNoDocuments) {
		return optional.None[VoteWeights](), nil
	}
	if err != nil {
		return nil, err
	}
	return optional.Some(doc), nil
}
