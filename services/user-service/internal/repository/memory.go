package repository

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/healthify-api/shared/security"
)

type userMemoryRepository struct {
	mu      sync.RWMutex
	users   map[bson.ObjectID]*model.User
	byEmail map[string]bson.ObjectID
	hasher  security.PasswordHasher
	now     func() time.Time
}

// NewUserMemoryRepository creates a UserRepository that keeps users in process memory.
// It backs local development and tests.
func NewUserMemoryRepository(hasher security.PasswordHasher) UserRepository {
	return &userMemoryRepository{
		users:   make(map[bson.ObjectID]*model.User),
		byEmail: make(map[string]bson.ObjectID),
		hasher:  hasher,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *userMemoryRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash, err := hashPassword(r.hasher, user.Password)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	email := NormalizeEmail(user.Email)
	if _, ok := r.byEmail[email]; ok {
		return nil, ErrDuplicateEmail
	}

	if hash != "" {
		user.PasswordHash = hash
	}
	user.Password = nil

	now := r.now()
	user.ID = bson.NewObjectID()
	user.Email = email
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.EmergencyContacts == nil {
		user.EmergencyContacts = []model.EmergencyContact{}
	}

	r.users[user.ID] = cloneUser(user)
	r.byEmail[email] = user.ID

	return user, nil
}

func (r *userMemoryRepository) GetUser(ctx context.Context, id string, opts ...ReadOption) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[objectID]
	if !ok {
		return nil, ErrUserNotFound
	}

	return project(user, applyReadOptions(opts)), nil
}

func (r *userMemoryRepository) GetUserByEmail(
	ctx context.Context,
	email string,
	opts ...ReadOption,
) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}

	return project(r.users[id], applyReadOptions(opts)), nil
}

func (r *userMemoryRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[NormalizeEmail(email)]
	return ok, nil
}

func (r *userMemoryRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	hash, err := hashPassword(r.hasher, params.Password)
	if err != nil {
		return nil, err
	}

	now := r.now()
	if len(updateFields(params, hash, now)) == 0 {
		return nil, ErrNothingToUpdate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[objectID]
	if !ok {
		return nil, ErrUserNotFound
	}

	if params.FullName != nil {
		user.FullName = *params.FullName
	}
	if params.Height != nil {
		user.Height = *params.Height
	}
	if params.Weight != nil {
		user.Weight = *params.Weight
	}
	if params.Age != nil {
		user.Age = *params.Age
	}
	if params.Gender != nil {
		user.Gender = *params.Gender
	}
	if params.EmergencyContacts != nil {
		user.EmergencyContacts = append([]model.EmergencyContact{}, (*params.EmergencyContacts)...)
	}
	if hash != "" {
		user.PasswordHash = hash
	}
	user.UpdatedAt = now

	return project(user, readOptions{}), nil
}

func (r *userMemoryRepository) DeleteUser(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[objectID]
	if !ok {
		return ErrUserNotFound
	}

	delete(r.byEmail, user.Email)
	delete(r.users, objectID)

	return nil
}

func (r *userMemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func project(user *model.User, o readOptions) *model.User {
	out := cloneUser(user)
	if !o.withPassword {
		out.PasswordHash = ""
	}
	return out
}

func cloneUser(user *model.User) *model.User {
	out := *user
	out.Password = nil
	out.EmergencyContacts = append([]model.EmergencyContact{}, user.EmergencyContacts...)
	return &out
}
