package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection    = "users"
	contactsCollection = "contacts"
	projectsCollection = "projects"
)

// MongoStore is the production Store backed by MongoDB.
type MongoStore struct {
	client   *mongo.Client
	database *mongo.Database
	timeout  time.Duration
}

// NewMongoStore connects to MongoDB and ensures the indexes the store relies
// on, in particular the unique email index on users.
func NewMongoStore(ctx context.Context, url, database string, timeout time.Duration) (*MongoStore, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &MongoStore{
		client:   client,
		database: client.Database(database),
		timeout:  timeout,
	}

	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Client exposes the underlying client for health checks.
func (s *MongoStore) Client() *mongo.Client {
	return s.client
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.database.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user email index: %w", err)
	}
	return nil
}

func (s *MongoStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// CreateUser inserts a new user. Duplicate emails map to ErrDuplicateEmail.
func (s *MongoStore) CreateUser(ctx context.Context, user *User) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := s.database.Collection(usersCollection).InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID returns a user or ErrNotFound.
func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var user User
	err := s.database.Collection(usersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail returns a user by email or ErrNotFound.
func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var user User
	err := s.database.Collection(usersCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// ListUsers returns all users ordered by creation time.
func (s *MongoStore) ListUsers(ctx context.Context) ([]*User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cursor, err := s.database.Collection(usersCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// UpdateUser replaces a user's mutable fields.
func (s *MongoStore) UpdateUser(ctx context.Context, user *User) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	user.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"email":         user.Email,
		"name":          user.Name,
		"password_hash": user.PasswordHash,
		"role":          user.Role,
		"updated_at":    user.UpdatedAt,
	}}

	result, err := s.database.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user.
func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result, err := s.database.Collection(usersCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateContact inserts a contact submission.
func (s *MongoStore) CreateContact(ctx context.Context, contact *Contact) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now()
	}

	if _, err := s.database.Collection(contactsCollection).InsertOne(ctx, contact); err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// GetContact returns a contact or ErrNotFound.
func (s *MongoStore) GetContact(ctx context.Context, id string) (*Contact, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var contact Contact
	err := s.database.Collection(contactsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&contact)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find contact: %w", err)
	}
	return &contact, nil
}

// ListContacts returns contact submissions, newest first.
func (s *MongoStore) ListContacts(ctx context.Context) ([]*Contact, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cursor, err := s.database.Collection(contactsCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer cursor.Close(ctx)

	var contacts []*Contact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	return contacts, nil
}

// DeleteContact removes a contact submission.
func (s *MongoStore) DeleteContact(ctx context.Context, id string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result, err := s.database.Collection(contactsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateProject inserts a project.
func (s *MongoStore) CreateProject(ctx context.Context, project *Project) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now
	if project.Status == "" {
		project.Status = ProjectStatusPlanned
	}

	if _, err := s.database.Collection(projectsCollection).InsertOne(ctx, project); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetProject returns a project or ErrNotFound.
func (s *MongoStore) GetProject(ctx context.Context, id string) (*Project, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var project Project
	err := s.database.Collection(projectsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	return &project, nil
}

// ListProjects returns all projects ordered by creation time.
func (s *MongoStore) ListProjects(ctx context.Context) ([]*Project, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	cursor, err := s.database.Collection(projectsCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer cursor.Close(ctx)

	var projects []*Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return projects, nil
}

// UpdateProject replaces a project's mutable fields.
func (s *MongoStore) UpdateProject(ctx context.Context, project *Project) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	project.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"title":       project.Title,
		"description": project.Description,
		"client":      project.Client,
		"status":      project.Status,
		"updated_at":  project.UpdatedAt,
	}}

	result, err := s.database.Collection(projectsCollection).UpdateOne(ctx, bson.M{"_id": project.ID}, update)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProject removes a project.
func (s *MongoStore) DeleteProject(ctx context.Context, id string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result, err := s.database.Collection(projectsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// HealthCheck pings the primary.
func (s *MongoStore) HealthCheck(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
