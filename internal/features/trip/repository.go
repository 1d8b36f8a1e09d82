package trip

import (
	"context"

	"charity-admin/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "trips"

type TripRepository interface {
	Create(ctx context.Context, t *Trip) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Trip, error)
	FindDetail(ctx context.Context, id primitive.ObjectID) (*TripDetail, error)
	List(ctx context.Context, filter bson.M, skip, limit int64) ([]TripDetail, int64, error)
	Update(ctx context.Context, t *Trip) error
	Finish(ctx context.Context, t *Trip) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	HasActive(ctx context.Context, vehicleID, exclude primitive.ObjectID) (bool, error)
	EnsureIndexes(ctx context.Context) error
}

type TripRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewTripRepository(mongodb *database.MongodbDB) TripRepository {
	return &TripRepositoryImpl{
		Collection: mongodb.DB.Collection(CollectionName),
	}
}

func joins() []mongo.Pipeline {
	return []mongo.Pipeline{
		database.LookupOne("vehicles", "vehicle", "vehicleDoc"),
		database.LookupOne("users", "driver", "driverDoc"),
		database.LookupMany("members", "passengers", "passengerDocs"),
	}
}

func (r *TripRepositoryImpl) Create(ctx context.Context, t *Trip) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, t)
	return err
}

func (r *TripRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Trip, error) {
	var t Trip
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TripRepositoryImpl) FindDetail(ctx context.Context, id primitive.ObjectID) (*TripDetail, error) {
	return database.FindOneJoined[TripDetail](ctx, r.Collection, bson.M{"_id": id}, joins()...)
}

func (r *TripRepositoryImpl) List(ctx context.Context, filter bson.M, skip, limit int64) ([]TripDetail, int64, error) {
	return database.FindPage[TripDetail](ctx, r.Collection, filter, bson.D{{Key: "startDate", Value: -1}}, skip, limit, joins()...)
}

func (r *TripRepositoryImpl) Update(ctx context.Context, t *Trip) error {
	set := bson.M{
		"vehicle":       t.Vehicle,
		"driver":        t.Driver,
		"startDate":     t.StartDate,
		"purpose":       t.Purpose,
		"startOdometer": t.StartOdometer,
		"status":        t.Status,
		"passengers":    t.Passengers,
		"notes":         t.Notes,
		"updatedAt":     t.UpdatedAt,
	}
	return r.updateOne(ctx, bson.M{"_id": t.ID}, bson.M{"$set": set})
}

// Finish moves an active trip to its terminal status. It returns
// mongo.ErrNoDocuments when the trip has already left the active states.
func (r *TripRepositoryImpl) Finish(ctx context.Context, t *Trip) error {
	filter := bson.M{
		"_id":    t.ID,
		"status": bson.M{"$in": bson.A{StatusScheduled, StatusInProgress}},
	}
	set := bson.M{
		"status":    t.Status,
		"updatedAt": t.UpdatedAt,
	}
	if t.EndDate != nil {
		set["endDate"] = t.EndDate
	}
	if t.EndOdometer != nil {
		set["endOdometer"] = t.EndOdometer
	}
	return r.updateOne(ctx, filter, bson.M{"$set": set})
}

func (r *TripRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// HasActive reports whether a scheduled or in-progress trip other than
// exclude uses the vehicle.
func (r *TripRepositoryImpl) HasActive(ctx context.Context, vehicleID, exclude primitive.ObjectID) (bool, error) {
	n, err := r.Collection.CountDocuments(ctx, bson.M{
		"_id":     bson.M{"$ne": exclude},
		"vehicle": vehicleID,
		"status":  bson.M{"$in": bson.A{StatusScheduled, StatusInProgress}},
	})
	return n > 0, err
}

func (r *TripRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "vehicle", Value: 1}}},
		{Keys: bson.D{{Key: "driver", Value: 1}}},
		{Keys: bson.D{{Key: "startDate", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func (r *TripRepositoryImpl) updateOne(ctx context.Context, filter, update bson.M) error {
	res, err := r.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
