// Package mongo implementa el adapter MongoDB del store de encargados.
// Lee y escribe la colección "manager" con el mismo esquema camelCase
// que ya existe en producción.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/inventary/manager-service/internal/domain/repository"
	store "github.com/inventary/manager-service/internal/store"
)

func init() {
	store.RegisterAdapter(&mongoAdapter{})
}

const defaultCollection = "manager"

type mongoAdapter struct{}

func (a *mongoAdapter) Name() string { return "mongo" }

func (a *mongoAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	if cfg.Database == "" {
		return nil, errors.New("mongo: database required")
	}
	opts := options.Client().ApplyURI(cfg.DSN)
	if cfg.MaxOpenConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxOpenConns))
	}
	if cfg.MaxIdleConns > 0 {
		opts.SetMinPoolSize(uint64(cfg.MaxIdleConns))
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping failed: %w", err)
	}

	coll := cfg.Collection
	if coll == "" {
		coll = defaultCollection
	}
	return &mongoConnection{
		client: client,
		coll:   client.Database(cfg.Database).Collection(coll),
	}, nil
}

type mongoConnection struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func (c *mongoConnection) Name() string { return "mongo" }

func (c *mongoConnection) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *mongoConnection) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

func (c *mongoConnection) Managers() repository.ManagerRepository {
	return &managerRepo{client: c.client, coll: c.coll}
}

// managerDoc es la forma persistida del documento.
type managerDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	UID            string             `bson:"uid"`
	FirstName      string             `bson:"firstName"`
	LastName       string             `bson:"lastName"`
	DocumentType   string             `bson:"documentType"`
	DocumentNumber string             `bson:"documentNumber"`
	Gender         string             `bson:"gender"`
	Address        string             `bson:"address"`
	BirthPlace     string             `bson:"birthPlace"`
	Email          string             `bson:"email"`
	Role           string             `bson:"role"`
	Password       string             `bson:"password"`
	Status         string             `bson:"status"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func toDoc(m *repository.Manager) (managerDoc, error) {
	d := managerDoc{
		UID:            m.UID,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		DocumentType:   m.DocumentType,
		DocumentNumber: m.DocumentNumber,
		Gender:         m.Gender,
		Address:        m.Address,
		BirthPlace:     m.BirthPlace,
		Email:          m.Email,
		Role:           m.Role,
		Password:       m.Password,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.ID != "" {
		oid, err := primitive.ObjectIDFromHex(m.ID)
		if err != nil {
			return d, fmt.Errorf("mongo: invalid id %q: %w", m.ID, repository.ErrInvalidInput)
		}
		d.ID = oid
	}
	return d, nil
}

func (d managerDoc) toDomain() repository.Manager {
	return repository.Manager{
		ID:             d.ID.Hex(),
		UID:            d.UID,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		DocumentType:   d.DocumentType,
		DocumentNumber: d.DocumentNumber,
		Gender:         d.Gender,
		Address:        d.Address,
		BirthPlace:     d.BirthPlace,
		Email:          d.Email,
		Role:           d.Role,
		Password:       d.Password,
		Status:         repository.Status(d.Status),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// filterFor construye el filtro bson para un Field del dominio.
func filterFor(field repository.Field, value string) (bson.M, error) {
	switch field {
	case repository.FieldEmail, repository.FieldDocumentNumber, repository.FieldStatus:
		return bson.M{string(field): value}, nil
	case repository.FieldRole:
		return bson.M{"role": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}}, nil
	default:
		return nil, repository.ErrUnsupportedField
	}
}

type managerRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func (r *managerRepo) GetByID(ctx context.Context, id string) (*repository.Manager, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, "get manager by id")
}

func (r *managerRepo) FindOne(ctx context.Context, field repository.Field, value string) (*repository.Manager, error) {
	filter, err := filterFor(field, value)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, filter, "find manager by "+string(field))
}

func (r *managerRepo) findOne(ctx context.Context, filter bson.M, op string) (*repository.Manager, error) {
	var d managerDoc
	err := r.coll.FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: %s: %w", op, err)
	}
	m := d.toDomain()
	return &m, nil
}

func (r *managerRepo) FindAll(ctx context.Context, field repository.Field, value string) ([]repository.Manager, error) {
	filter, err := filterFor(field, value)
	if err != nil {
		return nil, err
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list managers by %s: %w", field, err)
	}
	var docs []managerDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode managers: %w", err)
	}
	out := make([]repository.Manager, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *managerRepo) Save(ctx context.Context, m *repository.Manager) (*repository.Manager, error) {
	if m == nil {
		return nil, repository.ErrInvalidInput
	}
	d, err := toDoc(m)
	if err != nil {
		return nil, err
	}
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	_, err = r.coll.ReplaceOne(ctx, bson.M{"_id": d.ID}, d, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("mongo: save manager: %w", err)
	}
	saved := d.toDomain()
	return &saved, nil
}

func (r *managerRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}
