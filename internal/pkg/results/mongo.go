package results

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/REAM-lab/CATEX/internal/pkg/composer"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
)

// MongoArchive upserts one document per run into a MongoDB collection,
// keyed by run ID, carrying the total cost, the per-period cost and the
// number of generators and storage units. It does not archive
// per-timepoint costs, capacities or dispatch values — that
// volume belongs in the CSV sink, not a long-lived run history.
type MongoArchive struct {
	URI, Database, Collection string
}

func (a MongoArchive) Write(ctx context.Context, runID string, sys *model.System, res *composer.Result) error {
	client, err := mongo.NewClient(options.Client().ApplyURI(a.URI))
	if err != nil {
		return err
	}
	connectCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	doc := bson.M{
		"run_id":           runID,
		"total_cost":       res.TotalCost,
		"cost_per_period":  res.CostPerPeriod,
		"num_generators":   len(sys.GenOrder),
		"num_storage_units": len(sys.StorageOrder),
	}
	opts := options.Update().SetUpsert(true)
	_, err = client.Database(a.Database).Collection(a.Collection).UpdateOne(
		ctx,
		bson.M{"run_id": runID},
		bson.D{{Key: "$set", Value: doc}},
		opts,
	)
	return err
}
