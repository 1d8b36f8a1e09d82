package vehicle

import (
	"context"
	"time"

	"charity-admin/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "vehicles"

type VehicleRepository interface {
	Create(ctx context.Context, v *Vehicle) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Vehicle, error)
	ExistsByPlate(ctx context.Context, plate string, exclude primitive.ObjectID) (bool, error)
	List(ctx context.Context, filter bson.M, skip, limit int64) ([]Vehicle, int64, error)
	Update(ctx context.Context, v *Vehicle) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status Status, odometer *float64) error
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to Status) error
	AddDocument(ctx context.Context, id primitive.ObjectID, url string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ExpiringBefore(ctx context.Context, deadline time.Time) ([]Vehicle, error)
	EnsureIndexes(ctx context.Context) error
}

type VehicleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewVehicleRepository(mongodb *database.MongodbDB) VehicleRepository {
	return &VehicleRepositoryImpl{
		Collection: mongodb.DB.Collection(CollectionName),
	}
}

func (r *VehicleRepositoryImpl) Create(ctx context.Context, v *Vehicle) error {
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, v)
	return err
}

func (r *VehicleRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Vehicle, error) {
	var v Vehicle
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepositoryImpl) ExistsByPlate(ctx context.Context, plate string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"licensePlate": plate}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	count, err := r.Collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *VehicleRepositoryImpl) List(ctx context.Context, filter bson.M, skip, limit int64) ([]Vehicle, int64, error) {
	return database.FindPage[Vehicle](ctx, r.Collection, filter, bson.D{{Key: "createdAt", Value: -1}}, skip, limit)
}

// Update writes the descriptive fields. Status and odometer move through the
// status operations and the trip and maintenance flows.
func (r *VehicleRepositoryImpl) Update(ctx context.Context, v *Vehicle) error {
	set := bson.M{
		"make":               v.Make,
		"model":              v.Model,
		"year":               v.Year,
		"licensePlate":       v.LicensePlate,
		"currentOdometer":    v.CurrentOdometer,
		"fuelType":           v.FuelType,
		"registrationExpiry": v.RegistrationExpiry,
		"insuranceExpiry":    v.InsuranceExpiry,
		"notes":              v.Notes,
		"updatedAt":          v.UpdatedAt,
	}
	return r.updateOne(ctx, bson.M{"_id": v.ID}, bson.M{"$set": set})
}

func (r *VehicleRepositoryImpl) UpdateStatus(ctx context.Context, id primitive.ObjectID, status Status, odometer *float64) error {
	set := bson.M{"status": status, "updatedAt": time.Now()}
	if odometer != nil {
		set["currentOdometer"] = *odometer
	}
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// TransitionStatus changes the status only while it is still from, so two
// requests cannot both claim the same vehicle. It returns mongo.ErrNoDocuments
// when the vehicle is missing or in another state.
func (r *VehicleRepositoryImpl) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to Status) error {
	return r.updateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}})
}

func (r *VehicleRepositoryImpl) AddDocument(ctx context.Context, id primitive.ObjectID, url string) error {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"documents": url},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

func (r *VehicleRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ExpiringBefore lists vehicles whose registration or insurance lapses before deadline.
func (r *VehicleRepositoryImpl) ExpiringBefore(ctx context.Context, deadline time.Time) ([]Vehicle, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"registrationExpiry": bson.M{"$lte": deadline}},
		bson.M{"insuranceExpiry": bson.M{"$lte": deadline}},
	}}
	cursor, err := r.Collection.Find(ctx, filter, options.Find().SetSort(bson.M{"licensePlate": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	vehicles := make([]Vehicle, 0)
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *VehicleRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "licensePlate", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return err
}

func (r *VehicleRepositoryImpl) updateOne(ctx context.Context, filter, update bson.M) error {
	res, err := r.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
