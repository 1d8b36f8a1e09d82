package report

import (
	"context"

	"charity-admin/internal/database"
	"charity-admin/internal/features/maintenance"
	"charity-admin/internal/features/trip"
	"charity-admin/internal/features/vehicle"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ReportRepository runs the read-only aggregations behind the reports.
// Collections are addressed by name so one repository serves every entity.
type ReportRepository interface {
	Count(ctx context.Context, collection string, filter bson.M) (int64, error)
	CountBy(ctx context.Context, collection, field string, filter bson.M) (map[string]int64, error)
	Sum(ctx context.Context, collection, field string, filter bson.M) (float64, error)
	SumBy(ctx context.Context, collection, groupField, sumField string, filter bson.M) (map[string]float64, error)
	MonthlySum(ctx context.Context, collection, dateField, sumField string, filter bson.M) (map[string]float64, error)
	VehicleUsage(ctx context.Context) ([]VehicleUsage, error)
}

type ReportRepositoryImpl struct {
	DB *mongo.Database
}

func NewReportRepository(mongodb *database.MongodbDB) ReportRepository {
	return &ReportRepositoryImpl{DB: mongodb.DB}
}

type bucket struct {
	Key   string  `bson:"_id"`
	Count int64   `bson:"count"`
	Total float64 `bson:"total"`
}

func (r *ReportRepositoryImpl) group(ctx context.Context, collection string, filter bson.M, key interface{}, sumField string) ([]bucket, error) {
	acc := bson.M{"_id": key, "count": bson.M{"$sum": 1}}
	if sumField != "" {
		acc["total"] = bson.M{"$sum": "$" + sumField}
	}
	return database.Aggregate[bucket](ctx, r.DB.Collection(collection), mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: acc}},
	})
}

func (r *ReportRepositoryImpl) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	return r.DB.Collection(collection).CountDocuments(ctx, filter)
}

func (r *ReportRepositoryImpl) CountBy(ctx context.Context, collection, field string, filter bson.M) (map[string]int64, error) {
	rows, err := r.group(ctx, collection, filter, "$"+field, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] += row.Count
	}
	return out, nil
}

func (r *ReportRepositoryImpl) Sum(ctx context.Context, collection, field string, filter bson.M) (float64, error) {
	rows, err := r.group(ctx, collection, filter, nil, field)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return rows[0].Total, nil
}

func (r *ReportRepositoryImpl) SumBy(ctx context.Context, collection, groupField, sumField string, filter bson.M) (map[string]float64, error) {
	rows, err := r.group(ctx, collection, filter, "$"+groupField, sumField)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.Key] += row.Total
	}
	return out, nil
}

// MonthlySum totals sumField per YYYY-MM of dateField.
func (r *ReportRepositoryImpl) MonthlySum(ctx context.Context, collection, dateField, sumField string, filter bson.M) (map[string]float64, error) {
	month := bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$" + dateField}}
	rows, err := r.group(ctx, collection, filter, month, sumField)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Total
	}
	return out, nil
}

// VehicleUsage joins every vehicle with its trips and maintenance records.
// Distance only counts trips that recorded an end odometer.
func (r *ReportRepositoryImpl) VehicleUsage(ctx context.Context) ([]VehicleUsage, error) {
	finished := bson.M{"$filter": bson.M{
		"input": "$trips",
		"as":    "t",
		"cond":  bson.M{"$gt": bson.A{"$$t.endOdometer", nil}},
	}}
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{"from": trip.CollectionName, "localField": "_id", "foreignField": "vehicle", "as": "trips"}}},
		{{Key: "$lookup", Value: bson.M{"from": maintenance.CollectionName, "localField": "_id", "foreignField": "vehicle", "as": "maintenance"}}},
		{{Key: "$project", Value: bson.M{
			"make":         1,
			"model":        1,
			"licensePlate": 1,
			"status":       1,
			"tripCount":    bson.M{"$size": "$trips"},
			"totalDistance": bson.M{"$sum": bson.M{"$map": bson.M{
				"input": finished,
				"as":    "t",
				"in":    bson.M{"$subtract": bson.A{"$$t.endOdometer", "$$t.startOdometer"}},
			}}},
			"maintenanceCost": bson.M{"$sum": "$maintenance.cost"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "licensePlate", Value: 1}}}},
	}
	return database.Aggregate[VehicleUsage](ctx, r.DB.Collection(vehicle.CollectionName), pipeline)
}
