package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"routine-planner/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertFromTelegram finds or creates a user based on TelegramID and updates basic
// profile info. created reports whether the row is new.
func (r *UserRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (user *model.User, created bool, err error) {
	var u model.User
	db := r.db.WithContext(ctx)
	err = db.Where("telegram_id = ?", telegramID).First(&u).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"username":   username,
		}
		if err := db.Model(&u).Updates(updates).Error; err != nil {
			return nil, false, fmt.Errorf("update user: %w", err)
		}
		return &u, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		u = model.User{
			TelegramID: telegramID,
			FirstName:  firstName,
			LastName:   lastName,
			Username:   username,
		}
		if err := db.Create(&u).Error; err != nil {
			return nil, false, fmt.Errorf("create user: %w", translate(err))
		}
		return &u, true, nil
	default:
		return nil, false, fmt.Errorf("find user: %w", err)
	}
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListByIDs returns the users with the given ids, in id order.
func (r *UserRepository) ListByIDs(ctx context.Context, ids []uint) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes the user and every row the user owns. Callers should run it
// inside Store.WithinTx so a failure leaves nothing half-deleted.
func (r *UserRepository) Delete(ctx context.Context, userID uint) error {
	db := r.db.WithContext(ctx)
	for _, m := range []interface{}{
		&model.Instance{},
		&model.DaySession{},
		&model.WeekSession{},
		&model.Task{},
		&model.UserSettings{},
	} {
		if err := db.Where("user_id = ?", userID).Delete(m).Error; err != nil {
			return fmt.Errorf("delete user rows: %w", err)
		}
	}
	if err := db.Delete(&model.User{}, userID).Error; err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
