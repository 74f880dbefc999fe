package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Osdague92/fullstack-docker/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Когда при выполнении операции не найдено
// ни одного документа
var ErrNoDocuments = mongo.ErrNoDocuments

// ErrNotInitialized возвращается при обращении к коллекции
// до успешного New или после Close.
var ErrNotInitialized = errors.New("mongo: store is not initialized, call New first")

// псевдонимы для объектов домена
type (
	item  = domain.Item
	input = domain.ItemInput
)

// document объект хранения в коллекции.
type document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
}

func (d document) item() item {
	return item{ID: d.ID.Hex(), Name: d.Name, Description: d.Description}
}

// Mongo структура для выполнения CRUD операций с БД
type Mongo struct {
	client *mongo.Client // клиент mongo

	// имена db и collection задаются один раз в New
	database   string
	collection string
}

// New подключается к БД, используя connstr, и возвращает
// объект для работы с БД. Ошибка подключения или ping
// возвращается как есть, переподключений нет.
func New(ctx context.Context, connstr, database, collection string) (*Mongo, error) {

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connstr))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	return &Mongo{
		client:     client,
		database:   database,
		collection: collection,
	}, nil
}

// Collection возвращает активную коллекцию.
func (m *Mongo) Collection() (*mongo.Collection, error) {
	if m == nil || m.client == nil {
		return nil, ErrNotInitialized
	}
	return m.client.Database(m.database).Collection(m.collection), nil
}

// ParseID переводит строковый id в ObjectID. Любой некорректный
// id считается отсутствующим объектом.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q is not an object id", domain.ErrNotFound, id)
	}
	return oid, nil
}

// Ping проверяет соединение с БД.
func (m *Mongo) Ping(ctx context.Context) error {
	if m == nil || m.client == nil {
		return ErrNotInitialized
	}
	return m.client.Ping(ctx, nil)
}

// Close закрывает соединение с БД
func (m *Mongo) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	err := m.client.Disconnect(context.Background())
	m.client = nil
	return err
}

// Items возвращает списком все объекты из БД
// в естественном порядке коллекции.
func (m *Mongo) Items(ctx context.Context) ([]item, error) {

	col, err := m.Collection()
	if err != nil {
		return nil, err
	}

	cursor, err := col.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo: find items: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode items: %w", err)
	}

	items := make([]item, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.item())
	}

	return items, nil
}

// AddItem добавляет в БД объект, id назначает БД.
func (m *Mongo) AddItem(ctx context.Context, in input) (item, error) {

	col, err := m.Collection()
	if err != nil {
		return item{}, err
	}

	res, err := col.InsertOne(ctx, document{Name: in.Name, Description: in.Description})
	if err != nil {
		return item{}, fmt.Errorf("mongo: insert item: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return item{}, fmt.Errorf("mongo: unexpected inserted id type %T", res.InsertedID)
	}

	return item{ID: oid.Hex(), Name: in.Name, Description: in.Description}, nil
}

// Item находит объект по id.
// Возвращает ошибку domain.ErrNotFound в случае если документ не найден.
func (m *Mongo) Item(ctx context.Context, id string) (item, error) {

	oid, err := ParseID(id)
	if err != nil {
		return item{}, err
	}

	col, err := m.Collection()
	if err != nil {
		return item{}, err
	}

	var doc document
	err = col.FindOne(ctx, bson.D{bson.E{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, ErrNoDocuments) {
		return item{}, domain.ErrNotFound
	}
	if err != nil {
		return item{}, fmt.Errorf("mongo: find item %s: %w", id, err)
	}

	return doc.item(), nil
}

// ReplaceItem перезаписывает name и description объекта через $set.
func (m *Mongo) ReplaceItem(ctx context.Context, id string, in input) (domain.ReplaceResult, error) {

	oid, err := ParseID(id)
	if err != nil {
		return domain.ReplaceResult{}, err
	}

	col, err := m.Collection()
	if err != nil {
		return domain.ReplaceResult{}, err
	}

	filter := bson.D{bson.E{Key: "_id", Value: oid}}
	upd := bson.D{
		bson.E{
			Key: "$set", Value: bson.D{
				bson.E{Key: "name", Value: in.Name},
				bson.E{Key: "description", Value: in.Description},
			}},
	}
	res, err := col.UpdateOne(ctx, filter, upd)
	if err != nil {
		return domain.ReplaceResult{}, fmt.Errorf("mongo: update item %s: %w", id, err)
	}

	return domain.ReplaceResult{
		Matched:  res.MatchedCount > 0,
		Modified: res.ModifiedCount > 0,
	}, nil
}

// DeleteItem удаляет из БД объект по id.
func (m *Mongo) DeleteItem(ctx context.Context, id string) error {

	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	col, err := m.Collection()
	if err != nil {
		return err
	}

	res, err := col.DeleteOne(ctx, bson.D{bson.E{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("mongo: delete item %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}

	return nil
}
