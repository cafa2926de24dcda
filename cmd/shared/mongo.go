package shared

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongo server error code for an already existing collection
const codeNamespaceExists = 48

func MongoConnect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrapf(err, "connect to mongodb %s", uri)
	}
	return client, nil
}

// MongoTradeCollection returns the signals time series, creating it with a descending timestamp index on first use.
func MongoTradeCollection(ctx context.Context, client *mongo.Client, database string) (*mongo.Collection, error) {
	// try to create timeseries collection.
	opts := options.CreateCollection().SetTimeSeriesOptions(
		options.TimeSeries().
			SetTimeField("timestamp").
			SetMetaField("symbol"),
	)

	err := client.Database(database).CreateCollection(ctx, MongoSignalCollection, opts)
	var cmdErr mongo.CommandError
	if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists) {
		return nil, errors.Wrap(err, "create signal collection")
	}

	collection := client.Database(database).Collection(MongoSignalCollection)

	// set indexing to descending
	_, err = collection.Indexes().CreateOne(
		ctx,
		mongo.IndexModel{
			Keys: bson.D{
				{Key: "timestamp", Value: -1},
			},
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "create signal index")
	}
	return collection, nil
}

// MongoRecorder stores every emitted signal in the signals time series.
type MongoRecorder struct {
	collection *mongo.Collection
}

func NewMongoRecorder(collection *mongo.Collection) *MongoRecorder {
	return &MongoRecorder{collection: collection}
}

func (r *MongoRecorder) Record(ctx context.Context, signal TradeSignal) error {
	_, err := r.collection.InsertOne(ctx, signal)
	return errors.Wrap(err, "insert signal")
}

// LoadLastSignals returns up to n most recent signals, oldest first.
func LoadLastSignals(ctx context.Context, collection *mongo.Collection, n int) ([]TradeSignal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(int64(n))
	cursor, err := collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find signals")
	}
	defer cursor.Close(ctx)

	var results []TradeSignal
	if err := cursor.All(ctx, &results); err != nil {
		return nil, errors.Wrap(err, "load signals from cursor")
	}

	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	log.Debugf("Loaded %d signals from mongodb", len(results))
	return results, nil
}
