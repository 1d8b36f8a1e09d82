package payment

import (
	"context"
	"time"

	"charity-admin/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "payments"

type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Payment, error)
	FindDetail(ctx context.Context, id primitive.ObjectID) (*PaymentDetail, error)
	List(ctx context.Context, filter bson.M, skip, limit int64) ([]PaymentDetail, int64, error)
	ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]PaymentDetail, error)
	Update(ctx context.Context, p *Payment) error
	SetReceipt(ctx context.Context, id primitive.ObjectID, url string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IDsByMember(ctx context.Context) (map[primitive.ObjectID][]primitive.ObjectID, error)
	EnsureIndexes(ctx context.Context) error
}

type PaymentRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewPaymentRepository(mongodb *database.MongodbDB) PaymentRepository {
	return &PaymentRepositoryImpl{
		Collection: mongodb.DB.Collection(CollectionName),
	}
}

func joins() []mongo.Pipeline {
	return []mongo.Pipeline{
		database.LookupOne("members", "member", "memberDoc"),
		database.LookupOne("users", "collectedBy", "collectedByDoc"),
	}
}

func (r *PaymentRepositoryImpl) Create(ctx context.Context, p *Payment) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, p)
	return err
}

func (r *PaymentRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Payment, error) {
	var p Payment
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepositoryImpl) FindDetail(ctx context.Context, id primitive.ObjectID) (*PaymentDetail, error) {
	return database.FindOneJoined[PaymentDetail](ctx, r.Collection, bson.M{"_id": id}, joins()...)
}

func (r *PaymentRepositoryImpl) List(ctx context.Context, filter bson.M, skip, limit int64) ([]PaymentDetail, int64, error) {
	return database.FindPage[PaymentDetail](ctx, r.Collection, filter, bson.D{{Key: "paymentDate", Value: -1}}, skip, limit, joins()...)
}

func (r *PaymentRepositoryImpl) ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]PaymentDetail, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"member": memberID}}},
		{{Key: "$sort", Value: bson.D{{Key: "paymentDate", Value: -1}}}},
	}
	pipeline = append(pipeline, database.LookupOne("users", "collectedBy", "collectedByDoc")...)
	return database.Aggregate[PaymentDetail](ctx, r.Collection, pipeline)
}

// Update writes the editable fields; receiptNumber, collectedBy and the
// receipt file are fixed once set.
func (r *PaymentRepositoryImpl) Update(ctx context.Context, p *Payment) error {
	set := bson.M{
		"member":          p.Member,
		"amount":          p.Amount,
		"paymentDate":     p.PaymentDate,
		"paymentMethod":   p.PaymentMethod,
		"paymentType":     p.PaymentType,
		"dueDate":         p.DueDate,
		"isPaid":          p.IsPaid,
		"isInstallment":   p.IsInstallment,
		"installmentPlan": p.InstallmentPlan,
		"notes":           p.Notes,
		"updatedAt":       p.UpdatedAt,
	}
	return r.updateOne(ctx, p.ID, bson.M{"$set": set})
}

func (r *PaymentRepositoryImpl) SetReceipt(ctx context.Context, id primitive.ObjectID, url string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"receipt": url, "updatedAt": time.Now()}})
}

func (r *PaymentRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

type memberPayments struct {
	Member primitive.ObjectID   `bson:"_id"`
	IDs    []primitive.ObjectID `bson:"ids"`
}

// IDsByMember groups every payment id under its member.
func (r *PaymentRepositoryImpl) IDsByMember(ctx context.Context) (map[primitive.ObjectID][]primitive.ObjectID, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}}}},
		{{Key: "$group", Value: bson.M{"_id": "$member", "ids": bson.M{"$push": "$_id"}}}},
	}
	groups, err := database.Aggregate[memberPayments](ctx, r.Collection, pipeline)
	if err != nil {
		return nil, err
	}

	out := make(map[primitive.ObjectID][]primitive.ObjectID, len(groups))
	for _, g := range groups {
		out[g.Member] = g.IDs
	}
	return out, nil
}

func (r *PaymentRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "receiptNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "member", Value: 1}}},
		{Keys: bson.D{{Key: "paymentDate", Value: 1}}},
		{Keys: bson.D{{Key: "paymentType", Value: 1}}},
		{Keys: bson.D{{Key: "isPaid", Value: 1}}},
	})
	return err
}

func (r *PaymentRepositoryImpl) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.Collection.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
