package database

import (
	"errors"
	"fmt"

	"allowcast/internal/domain"

	"gorm.io/gorm"
)

func GetUserFromId(id uint) domain.User {
	var user domain.User
	DB.Where("id = ?", id).First(&user)
	return user
}

func GetUserByEmail(email string) (domain.User, error) {
	var user domain.User
	if err := DB.Where("email = ?", email).First(&user).Error; err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// CreateUser persists a new user. The first user in an empty database becomes
// the admin.
func CreateUser(user *domain.User) error {
	var existing domain.User
	err := DB.Select("id").Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user.Role = "admin"
	case err != nil:
		return fmt.Errorf("database: check existing users: %w", err)
	default:
		user.Role = "user"
	}

	if err := DB.Create(user).Error; err != nil {
		return fmt.Errorf("database: create user: %w", err)
	}
	return nil
}

func UpdateUserPassword(id uint, hashedPassword string) error {
	res := DB.Model(&domain.User{}).Where("id = ?", id).Update("password", hashedPassword)
	if res.Error != nil {
		return fmt.Errorf("database: update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
