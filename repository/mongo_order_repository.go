package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brickDelivery/models"
)

// orderDoc is the stored shape of an order. Money is kept as decimal strings.
type orderDoc struct {
	ID             int64   `bson:"_id"`
	Ref            string  `bson:"ref"`
	UserID         int64   `bson:"user_id"`
	CustomerName   string  `bson:"customer_name"`
	Phone          string  `bson:"phone"`
	Email          string  `bson:"email"`
	BrickCode      string  `bson:"brick_code"`
	Quantity       int     `bson:"quantity"`
	Lat            float64 `bson:"lat"`
	Lng            float64 `bson:"lng"`
	LocationLabel  string  `bson:"location_label"`
	DistanceKm     float64 `bson:"distance_km"`
	Trips          int     `bson:"trips"`
	UnitPrice      string  `bson:"unit_price"`
	BrickSubtotal  string  `bson:"brick_subtotal"`
	DeliveryCharge string  `bson:"delivery_charge"`
	Total          string  `bson:"total"`
	PaymentMethod  string  `bson:"payment_method"`
	PaymentProof   string  `bson:"payment_proof"`
	Status         string  `bson:"status"`
	PlacementDate  string  `bson:"placement_date"`
	PlacementUnix  int64   `bson:"placement_unix"`
}

func toOrderDoc(o *models.Order) orderDoc {
	return orderDoc{
		ID: o.ID, Ref: o.Ref, UserID: o.UserID, CustomerName: o.CustomerName, Phone: o.Phone, Email: o.Email,
		BrickCode: o.BrickCode, Quantity: o.Quantity, Lat: o.Lat, Lng: o.Lng, LocationLabel: o.LocationLabel,
		DistanceKm: o.DistanceKm, Trips: o.Trips,
		UnitPrice: o.UnitPrice.String(), BrickSubtotal: o.BrickSubtotal.String(),
		DeliveryCharge: o.DeliveryCharge.String(), Total: o.Total.String(),
		PaymentMethod: string(o.PaymentMethod), PaymentProof: o.PaymentProof, Status: string(o.Status),
		PlacementDate: o.PlacementAt,
	}
}

func (d orderDoc) toModel() (models.Order, error) {
	o := models.Order{
		ID: d.ID, Ref: d.Ref, UserID: d.UserID, CustomerName: d.CustomerName, Phone: d.Phone, Email: d.Email,
		BrickCode: d.BrickCode, Quantity: d.Quantity, Lat: d.Lat, Lng: d.Lng, LocationLabel: d.LocationLabel,
		DistanceKm: d.DistanceKm, Trips: d.Trips,
		PaymentMethod: models.PaymentMethod(d.PaymentMethod), PaymentProof: d.PaymentProof,
		Status: models.OrderStatus(d.Status), PlacementAt: d.PlacementDate,
	}
	amounts := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&o.UnitPrice, d.UnitPrice}, {&o.BrickSubtotal, d.BrickSubtotal},
		{&o.DeliveryCharge, d.DeliveryCharge}, {&o.Total, d.Total},
	}
	for _, a := range amounts {
		v, err := decimal.NewFromString(a.src)
		if err != nil {
			return o, fmt.Errorf("order %d amount %q: %w", d.ID, a.src, err)
		}
		*a.dst = v
	}
	return o, nil
}

// MongoOrderRepository is the MongoDB-backed OrderStore. Integer ids come from a
// counters collection so both backends expose the same identifiers.
type MongoOrderRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
	now      func() time.Time
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{
		col:      db.Collection("orders"),
		counters: db.Collection("counters"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// nextSequence atomically increments and returns the named counter.
func nextSequence(ctx context.Context, counters *mongo.Collection, name string) (int64, error) {
	var res struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := counters.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&res)
	if err != nil {
		return 0, err
	}
	return res.Seq, nil
}

func (m *MongoOrderRepository) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	if o == nil {
		return nil, errors.New("order is nil")
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	if o.Ref == "" {
		o.Ref = NewOrderRef()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	id, err := nextSequence(ctx, m.counters, "orders")
	if err != nil {
		return nil, err
	}
	now := m.now()
	out := *o
	out.ID = id
	out.PlacementAt = now.Format(PlacementLayout)
	doc := toOrderDoc(&out)
	doc.PlacementUnix = now.Unix()
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MongoOrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var d orderDoc
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o, err := d.toModel()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (m *MongoOrderRepository) ListByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	return m.find(ctx, bson.M{"user_id": userID}, 0)
}

func (m *MongoOrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	return m.find(ctx, bson.M{}, 0)
}

func (m *MongoOrderRepository) ListAdmin(ctx context.Context, p ListOrdersAdminParams) ([]models.Order, error) {
	p.normalize()
	filter := bson.M{}
	if len(p.Statuses) > 0 {
		in := make([]string, len(p.Statuses))
		for i, s := range p.Statuses {
			in[i] = string(s)
		}
		filter["status"] = bson.M{"$in": in}
	}
	if p.UserID != nil {
		filter["user_id"] = *p.UserID
	}
	rng := bson.M{}
	if p.PlacementFrom != nil {
		rng["$gte"] = *p.PlacementFrom
	}
	if p.PlacementTo != nil {
		rng["$lte"] = *p.PlacementTo
	}
	if len(rng) > 0 {
		filter["placement_date"] = rng
	}
	if p.AfterSeconds > 0 && p.AfterID > 0 {
		filter["$or"] = bson.A{
			bson.M{"placement_unix": bson.M{"$lt": p.AfterSeconds}},
			bson.M{"placement_unix": p.AfterSeconds, "_id": bson.M{"$lt": p.AfterID}},
		}
	}
	return m.find(ctx, filter, int64(p.PageSize))
}

func (m *MongoOrderRepository) find(ctx context.Context, filter bson.M, limit int64) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "placement_unix", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Order
	for cur.Next(ctx) {
		var d orderDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		o, err := d.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, cur.Err()
}

func (m *MongoOrderRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoOrderRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
