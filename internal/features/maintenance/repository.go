package maintenance

import (
	"context"
	"time"

	"charity-admin/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "maintenances"

type MaintenanceRepository interface {
	Create(ctx context.Context, m *Maintenance) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Maintenance, error)
	FindDetail(ctx context.Context, id primitive.ObjectID) (*MaintenanceDetail, error)
	List(ctx context.Context, filter bson.M, skip, limit int64) ([]MaintenanceDetail, int64, error)
	Update(ctx context.Context, m *Maintenance) error
	Complete(ctx context.Context, id primitive.ObjectID, at time.Time) error
	AddDocument(ctx context.Context, id primitive.ObjectID, url string) error
	HasOpen(ctx context.Context, vehicleID, exclude primitive.ObjectID) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type MaintenanceRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewMaintenanceRepository(mongodb *database.MongodbDB) MaintenanceRepository {
	return &MaintenanceRepositoryImpl{
		Collection: mongodb.DB.Collection(CollectionName),
	}
}

func joins() []mongo.Pipeline {
	return []mongo.Pipeline{
		database.LookupOne("vehicles", "vehicle", "vehicleDoc"),
	}
}

func (r *MaintenanceRepositoryImpl) Create(ctx context.Context, m *Maintenance) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, m)
	return err
}

func (r *MaintenanceRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Maintenance, error) {
	var m Maintenance
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MaintenanceRepositoryImpl) FindDetail(ctx context.Context, id primitive.ObjectID) (*MaintenanceDetail, error) {
	return database.FindOneJoined[MaintenanceDetail](ctx, r.Collection, bson.M{"_id": id}, joins()...)
}

func (r *MaintenanceRepositoryImpl) List(ctx context.Context, filter bson.M, skip, limit int64) ([]MaintenanceDetail, int64, error) {
	return database.FindPage[MaintenanceDetail](ctx, r.Collection, filter, bson.D{{Key: "date", Value: -1}}, skip, limit, joins()...)
}

// Update writes the editable fields; documents and completion have their own operations.
func (r *MaintenanceRepositoryImpl) Update(ctx context.Context, m *Maintenance) error {
	set := bson.M{
		"vehicle":         m.Vehicle,
		"maintenanceType": m.MaintenanceType,
		"date":            m.Date,
		"description":     m.Description,
		"cost":            m.Cost,
		"serviceProvider": m.ServiceProvider,
		"notes":           m.Notes,
		"updatedAt":       m.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if m.Odometer != nil {
		set["odometer"] = *m.Odometer
	} else {
		update["$unset"] = bson.M{"odometer": ""}
	}
	return r.updateOne(ctx, bson.M{"_id": m.ID}, update)
}

// Complete stamps completedAt on an open record and returns
// mongo.ErrNoDocuments when there is no such record.
func (r *MaintenanceRepositoryImpl) Complete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.updateOne(ctx,
		bson.M{"_id": id, "completedAt": nil},
		bson.M{"$set": bson.M{"completedAt": at, "updatedAt": at}},
	)
}

func (r *MaintenanceRepositoryImpl) AddDocument(ctx context.Context, id primitive.ObjectID, url string) error {
	return r.updateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"documents": url}, "$set": bson.M{"updatedAt": time.Now()}},
	)
}

// HasOpen reports whether the vehicle has another uncompleted record that
// keeps it out of service.
func (r *MaintenanceRepositoryImpl) HasOpen(ctx context.Context, vehicleID, exclude primitive.ObjectID) (bool, error) {
	n, err := r.Collection.CountDocuments(ctx, bson.M{
		"_id":             bson.M{"$ne": exclude},
		"vehicle":         vehicleID,
		"maintenanceType": bson.M{"$ne": TypeInspection},
		"completedAt":     nil,
	})
	return n > 0, err
}

func (r *MaintenanceRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MaintenanceRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "vehicle", Value: 1}}},
		{Keys: bson.D{{Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "maintenanceType", Value: 1}}},
	})
	return err
}

func (r *MaintenanceRepositoryImpl) updateOne(ctx context.Context, filter, update bson.M) error {
	res, err := r.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
