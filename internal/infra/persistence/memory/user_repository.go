package memory

import (
	"context"
	"sort"

	"velure/internal/domain/entity"
	domainerrors "velure/internal/domain/errors"
	"velure/internal/domain/repository"
)

type userRepository struct {
	store *Store
}

func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usersByEmail[user.Email]; taken {
		return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
	}

	s.nextUserID++
	now := s.now()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now

	s.users[user.ID] = cloneUser(user)
	s.usersByEmail[user.Email] = user.ID

	return nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return r.sorted(), nil
}

func (r *userRepository) FindPage(ctx context.Context, offset, limit int) ([]*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	users := r.sorted()
	if offset < 0 || offset >= len(users) {
		return []*entity.User{}, nil
	}
	end := min(offset+limit, len(users))

	return users[offset:end], nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return int64(len(r.store.users)), nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return cloneUser(user), nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.usersByEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return cloneUser(r.store.users[id]), nil
}

func (r *userRepository) sorted() []*entity.User {
	r.store.mu.RLock()
	users := make([]*entity.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		users = append(users, cloneUser(user))
	}
	r.store.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	return users
}
