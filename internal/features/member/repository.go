package member

import (
	"context"
	"time"

	"charity-admin/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "members"

type MemberRepository interface {
	Create(ctx context.Context, m *Member) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Member, error)
	FindDetail(ctx context.Context, id primitive.ObjectID) (*MemberDetail, error)
	ExistsByNationalID(ctx context.Context, nationalID string, exclude primitive.ObjectID) (bool, error)
	List(ctx context.Context, filter bson.M, skip, limit int64) ([]Member, int64, error)
	Update(ctx context.Context, m *Member) error
	SetPhoto(ctx context.Context, id primitive.ObjectID, url string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddPaymentRecord(ctx context.Context, memberID, paymentID primitive.ObjectID) error
	RemovePaymentRecord(ctx context.Context, memberID, paymentID primitive.ObjectID) error
	PaymentRecords(ctx context.Context) (map[primitive.ObjectID][]primitive.ObjectID, error)
	AddPaymentRecords(ctx context.Context, memberID primitive.ObjectID, paymentIDs []primitive.ObjectID) error
	PullPaymentRecords(ctx context.Context, memberID primitive.ObjectID, paymentIDs []primitive.ObjectID) error
	IDs(ctx context.Context) ([]primitive.ObjectID, error)
	EnsureIndexes(ctx context.Context) error
}

type MemberRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewMemberRepository(mongodb *database.MongodbDB) MemberRepository {
	return &MemberRepositoryImpl{
		Collection: mongodb.DB.Collection(CollectionName),
	}
}

func (r *MemberRepositoryImpl) Create(ctx context.Context, m *Member) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, m)
	return err
}

func (r *MemberRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Member, error) {
	var m Member
	if err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepositoryImpl) FindDetail(ctx context.Context, id primitive.ObjectID) (*MemberDetail, error) {
	return database.FindOneJoined[MemberDetail](ctx, r.Collection, bson.M{"_id": id},
		database.LookupMany("payments", "paymentRecords", "paymentDocs"))
}

func (r *MemberRepositoryImpl) ExistsByNationalID(ctx context.Context, nationalID string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"nationalId": nationalID}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	count, err := r.Collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MemberRepositoryImpl) List(ctx context.Context, filter bson.M, skip, limit int64) ([]Member, int64, error) {
	return database.FindPage[Member](ctx, r.Collection, filter, bson.D{{Key: "joinDate", Value: -1}}, skip, limit)
}

// Update writes the editable fields. paymentRecords is owned by the payment
// flow and createdAt never changes.
func (r *MemberRepositoryImpl) Update(ctx context.Context, m *Member) error {
	set := bson.M{
		"fullName":         m.FullName,
		"dateOfBirth":      m.DateOfBirth,
		"nationalId":       m.NationalID,
		"contact":          m.Contact,
		"primaryAddress":   m.PrimaryAddress,
		"tribeAffiliation": m.TribeAffiliation,
		"membershipStatus": m.MembershipStatus,
		"profilePhoto":     m.ProfilePhoto,
		"joinDate":         m.JoinDate,
		"notes":            m.Notes,
		"updatedAt":        m.UpdatedAt,
	}
	unset := bson.M{}
	if m.AlternateAddress != nil {
		set["alternateAddress"] = m.AlternateAddress
	} else {
		unset["alternateAddress"] = ""
	}
	if m.EmergencyContact != nil {
		set["emergencyContact"] = m.EmergencyContact
	} else {
		unset["emergencyContact"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := r.Collection.UpdateByID(ctx, m.ID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MemberRepositoryImpl) SetPhoto(ctx context.Context, id primitive.ObjectID, url string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"profilePhoto": url, "updatedAt": time.Now()}})
}

func (r *MemberRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AddPaymentRecord returns mongo.ErrNoDocuments when the member does not exist.
func (r *MemberRepositoryImpl) AddPaymentRecord(ctx context.Context, memberID, paymentID primitive.ObjectID) error {
	return r.updateOne(ctx, memberID, bson.M{"$addToSet": bson.M{"paymentRecords": paymentID}})
}

// RemovePaymentRecord tolerates a member that has since been deleted.
func (r *MemberRepositoryImpl) RemovePaymentRecord(ctx context.Context, memberID, paymentID primitive.ObjectID) error {
	_, err := r.Collection.UpdateByID(ctx, memberID, bson.M{"$pull": bson.M{"paymentRecords": paymentID}})
	return err
}

// PaymentRecords maps every member id to its current paymentRecords.
func (r *MemberRepositoryImpl) PaymentRecords(ctx context.Context) (map[primitive.ObjectID][]primitive.ObjectID, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1, "paymentRecords": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := map[primitive.ObjectID][]primitive.ObjectID{}
	for cursor.Next(ctx) {
		var doc struct {
			ID             primitive.ObjectID   `bson:"_id"`
			PaymentRecords []primitive.ObjectID `bson:"paymentRecords"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		records[doc.ID] = doc.PaymentRecords
	}
	return records, cursor.Err()
}

func (r *MemberRepositoryImpl) AddPaymentRecords(ctx context.Context, memberID primitive.ObjectID, paymentIDs []primitive.ObjectID) error {
	_, err := r.Collection.UpdateByID(ctx, memberID, bson.M{"$addToSet": bson.M{"paymentRecords": bson.M{"$each": paymentIDs}}})
	return err
}

func (r *MemberRepositoryImpl) PullPaymentRecords(ctx context.Context, memberID primitive.ObjectID, paymentIDs []primitive.ObjectID) error {
	_, err := r.Collection.UpdateByID(ctx, memberID, bson.M{"$pull": bson.M{"paymentRecords": bson.M{"$in": paymentIDs}}})
	return err
}

func (r *MemberRepositoryImpl) IDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

func (r *MemberRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "nationalId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "membershipStatus", Value: 1}}},
		{Keys: bson.D{{Key: "joinDate", Value: -1}}},
	})
	return err
}

func (r *MemberRepositoryImpl) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.Collection.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
