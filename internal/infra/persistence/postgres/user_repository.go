package postgres

import (
	"context"

	"velure/internal/domain/entity"
	domainerrors "velure/internal/domain/errors"
	"velure/internal/domain/repository"
	"velure/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create inserts the user and copies the generated ID and timestamps back.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

func (repo *userRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	var users []*model.UserModel
	if err := repo.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	return toUserDomainList(users), nil
}

func (repo *userRepository) FindPage(ctx context.Context, offset, limit int) ([]*entity.User, error) {
	// gorm drops a negative offset instead of rejecting it, which would return the first page.
	if offset < 0 {
		return []*entity.User{}, nil
	}

	var users []*model.UserModel
	if err := repo.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list users page")
	}

	return toUserDomainList(users), nil
}

func (repo *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&model.UserModel{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}

	return count, nil
}

// FindByID retrieves a single user by their unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	return toUserDomain(&userM), nil
}

// FindByEmail retrieves a single user by their email address.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where("email = ?", email).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	return toUserDomain(&userM), nil
}

// --- Mapper Functions ---

func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:           data.ID,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		Name:         data.Name,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

func toUserDomainList(data []*model.UserModel) []*entity.User {
	users := make([]*entity.User, 0, len(data))
	for _, userM := range data {
		users = append(users, toUserDomain(userM))
	}

	return users
}

func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:           data.ID,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		Name:         data.Name,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}
