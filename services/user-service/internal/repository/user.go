package repository

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/healthify-api/shared/security"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrNothingToUpdate = errors.New("no user fields to update")
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string, opts ...ReadOption) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string, opts ...ReadOption) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated. Password carries plaintext and is
// hashed inside the write.
type UpdateUserParams struct {
	FullName          *string
	Height            *float64
	Weight            *float64
	Age               *int
	Gender            *model.Gender
	EmergencyContacts *[]model.EmergencyContact
	Password          *string
}

// ReadOption adjusts which fields a read returns.
type ReadOption func(*readOptions)

type readOptions struct {
	withPassword bool
}

// WithPassword includes the stored password hash in the returned user.
func WithPassword() ReadOption {
	return func(o *readOptions) {
		o.withPassword = true
	}
}

func applyReadOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// hashPassword turns the plaintext on the write path into a stored hash. A nil password
// yields an empty hash and leaves the stored one untouched.
func hashPassword(hasher security.PasswordHasher, password *string) (string, error) {
	if password == nil {
		return "", nil
	}

	hash, err := hasher.Hash(*password)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}

	return hash, nil
}

// updateFields builds the $set document for params. passwordHash is only written when non-empty.
func updateFields(params UpdateUserParams, passwordHash string, now time.Time) bson.M {
	set := bson.M{}
	if params.FullName != nil {
		set["full_name"] = *params.FullName
	}
	if params.Height != nil {
		set["height"] = *params.Height
	}
	if params.Weight != nil {
		set["weight"] = *params.Weight
	}
	if params.Age != nil {
		set["age"] = *params.Age
	}
	if params.Gender != nil {
		set["gender"] = *params.Gender
	}
	if params.EmergencyContacts != nil {
		set["emergency_contacts"] = *params.EmergencyContacts
	}
	if passwordHash != "" {
		set["password_hash"] = passwordHash
	}

	if len(set) == 0 {
		return set
	}

	set["updated_at"] = now
	return set
}

const userCollection = "users"

var withoutPassword = bson.M{"password_hash": 0}

type userMongoRepository struct {
	db     *mongo.Database
	hasher security.PasswordHasher
}

func NewUserMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
	hasher security.PasswordHasher,
) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db, hasher: hasher}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	hash, err := hashPassword(r.hasher, user.Password)
	if err != nil {
		return nil, err
	}
	if hash != "" {
		user.PasswordHash = hash
	}
	user.Password = nil

	now := time.Now().UTC()
	user.Email = NormalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.EmergencyContacts == nil {
		user.EmergencyContacts = []model.EmergencyContact{}
	}

	result, err := r.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}

		return nil, errors.Wrap(err, "failed to insert user")
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string, opts ...ReadOption) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	return r.findOne(ctx, bson.M{"_id": objectID}, applyReadOptions(opts))
}

func (r *userMongoRepository) GetUserByEmail(
	ctx context.Context,
	email string,
	opts ...ReadOption,
) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": NormalizeEmail(email)}, applyReadOptions(opts))
}

func (r *userMongoRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	count, err := r.db.Collection(userCollection).CountDocuments(
		ctx,
		bson.M{"email": NormalizeEmail(email)},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, errors.Wrap(err, "failed to count users by email")
	}

	return count > 0, nil
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M, o readOptions) (*model.User, error) {
	findOptions := options.FindOne()
	if !o.withPassword {
		findOptions.SetProjection(withoutPassword)
	}

	result := r.db.Collection(userCollection).FindOne(ctx, filter, findOptions)
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, errors.Wrap(err, "failed to decode user")
	}

	return &user, nil
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	hash, err := hashPassword(r.hasher, params.Password)
	if err != nil {
		return nil, err
	}

	set := updateFields(params, hash, time.Now().UTC())
	if len(set) == 0 {
		return nil, ErrNothingToUpdate
	}

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(withoutPassword),
	)
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to update user")
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, errors.Wrap(err, "failed to decode user")
	}

	return &user, nil
}

func (r *userMongoRepository) DeleteUser(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}

	result, err := r.db.Collection(userCollection).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return errors.Wrap(err, "failed to delete user")
	}
	if result.DeletedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userMongoRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}
