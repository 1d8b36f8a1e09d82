package expense

import (
	"context"
	"time"

	"charity-admin/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "expenses"

type ExpenseRepository interface {
	Create(ctx context.Context, e *Expense) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Expense, error)
	FindDetail(ctx context.Context, id primitive.ObjectID) (*ExpenseDetail, error)
	List(ctx context.Context, filter bson.M, skip, limit int64) ([]ExpenseDetail, int64, error)
	Update(ctx context.Context, e *Expense) error
	SetReceipt(ctx context.Context, id primitive.ObjectID, url string) error
	Decide(ctx context.Context, id primitive.ObjectID, status ApprovalStatus, approver primitive.ObjectID, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type ExpenseRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewExpenseRepository(mongodb *database.MongodbDB) ExpenseRepository {
	return &ExpenseRepositoryImpl{
		Collection: mongodb.DB.Collection(CollectionName),
	}
}

func joins() []mongo.Pipeline {
	return []mongo.Pipeline{
		database.LookupOne("users", "spentBy", "spentByDoc"),
		database.LookupOne("users", "approvedBy", "approvedByDoc"),
	}
}

func (r *ExpenseRepositoryImpl) Create(ctx context.Context, e *Expense) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, e)
	return err
}

func (r *ExpenseRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Expense, error) {
	var e Expense
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExpenseRepositoryImpl) FindDetail(ctx context.Context, id primitive.ObjectID) (*ExpenseDetail, error) {
	return database.FindOneJoined[ExpenseDetail](ctx, r.Collection, bson.M{"_id": id}, joins()...)
}

func (r *ExpenseRepositoryImpl) List(ctx context.Context, filter bson.M, skip, limit int64) ([]ExpenseDetail, int64, error) {
	return database.FindPage[ExpenseDetail](ctx, r.Collection, filter, bson.D{{Key: "date", Value: -1}}, skip, limit, joins()...)
}

func (r *ExpenseRepositoryImpl) Update(ctx context.Context, e *Expense) error {
	set := bson.M{
		"category":  e.Category,
		"amount":    e.Amount,
		"date":      e.Date,
		"purpose":   e.Purpose,
		"notes":     e.Notes,
		"updatedAt": e.UpdatedAt,
	}
	return r.updateOne(ctx, bson.M{"_id": e.ID}, bson.M{"$set": set})
}

func (r *ExpenseRepositoryImpl) SetReceipt(ctx context.Context, id primitive.ObjectID, url string) error {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"receipt": url, "updatedAt": time.Now()}})
}

// Decide moves a pending expense to status. It returns mongo.ErrNoDocuments
// when the expense is missing or no longer pending.
func (r *ExpenseRepositoryImpl) Decide(ctx context.Context, id primitive.ObjectID, status ApprovalStatus, approver primitive.ObjectID, at time.Time) error {
	filter := bson.M{"_id": id, "approvalStatus": StatusPending}
	update := bson.M{"$set": bson.M{
		"approvalStatus": status,
		"approvedBy":     approver,
		"approvedAt":     at,
		"updatedAt":      at,
	}}
	return r.updateOne(ctx, filter, update)
}

func (r *ExpenseRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *ExpenseRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "approvalStatus", Value: 1}}},
	})
	return err
}

func (r *ExpenseRepositoryImpl) updateOne(ctx context.Context, filter, update bson.M) error {
	res, err := r.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
