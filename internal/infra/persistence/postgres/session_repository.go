package postgres

import (
	"context"
	"time"

	"velure/internal/domain/entity"
	domainerrors "velure/internal/domain/errors"
	"velure/internal/domain/repository"
	"velure/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sessionRepository implements the domain.SessionRepository interface.
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository is the constructor for sessionRepository.
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) FindByUserID(ctx context.Context, userID uint) (*entity.Session, error) {
	return repo.findOne(ctx, "user_id = ?", userID)
}

func (repo *sessionRepository) FindByRefreshToken(ctx context.Context, refreshToken string) (*entity.Session, error) {
	return repo.findOne(ctx, "refresh_token = ?", refreshToken)
}

func (repo *sessionRepository) findOne(ctx context.Context, query string, arg any) (*entity.Session, error) {
	var sessionM model.SessionModel
	if err := repo.db.WithContext(ctx).Where(query, arg).First(&sessionM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to find session")
	}

	return toSessionDomain(&sessionM), nil
}

func (repo *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	sessionM := fromSessionDomain(session)

	if err := repo.db.WithContext(ctx).Create(sessionM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound.WrapMessage("session owner does not exist")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create session")
	}

	copySession(session, sessionM)

	return nil
}

func (repo *sessionRepository) Update(ctx context.Context, session *entity.Session) error {
	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("user_id = ?", session.UserID).
		Updates(map[string]any{
			"access_token":  session.AccessToken,
			"refresh_token": session.RefreshToken,
			"expires_at":    session.ExpiresAt,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update session")
	}
	if result.RowsAffected == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

// Upsert relies on the unique index on user_id: concurrent logins of one user
// serialize on that row and leave exactly one session behind.
func (repo *sessionRepository) Upsert(ctx context.Context, session *entity.Session) error {
	sessionM := fromSessionDomain(session)

	err := repo.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "expires_at", "updated_at"}),
			},
			clause.Returning{},
		).
		Create(sessionM).Error
	if err != nil {
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound.WrapMessage("session owner does not exist")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to upsert session")
	}

	copySession(session, sessionM)

	return nil
}

func (repo *sessionRepository) DeleteByRefreshToken(ctx context.Context, refreshToken string) error {
	if err := repo.db.WithContext(ctx).
		Where("refresh_token = ?", refreshToken).
		Delete(&model.SessionModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete session")
	}

	return nil
}

func (repo *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&model.SessionModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete expired sessions")
	}

	return result.RowsAffected, nil
}

func (repo *sessionRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("expires_at > ?", now).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count active sessions")
	}

	return count, nil
}

// --- Mapper Functions ---

func toSessionDomain(data *model.SessionModel) *entity.Session {
	if data == nil {
		return nil
	}

	return &entity.Session{
		ID:           data.ID,
		UserID:       data.UserID,
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
		ExpiresAt:    data.ExpiresAt,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

func fromSessionDomain(data *entity.Session) *model.SessionModel {
	if data == nil {
		return nil
	}

	return &model.SessionModel{
		ID:           data.ID,
		UserID:       data.UserID,
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
		ExpiresAt:    data.ExpiresAt,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

func copySession(dst *entity.Session, src *model.SessionModel) {
	dst.ID = src.ID
	dst.CreatedAt = src.CreatedAt
	dst.UpdatedAt = src.UpdatedAt
	dst.ExpiresAt = src.ExpiresAt
}
