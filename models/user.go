package models

import (
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type AuthorizedUser struct {
	ID         int       `gorm:"primary_key" json:"id"`
	TelegramID int64     `gorm:"uniqueIndex;not null" json:"telegram_id" binding:"required"`
	FirstName  string    `gorm:"size:255" json:"first_name"`
	LastName   string    `gorm:"size:255" json:"last_name"`
	IsActive   *bool     `gorm:"not null;default:false" json:"is_active"`
	IsAdmin    *bool     `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type UserProjectGrant struct {
	ID         int       `gorm:"primary_key" json:"id"`
	TelegramID int64     `gorm:"uniqueIndex:idx_grant_user_project;not null" json:"telegram_id"`
	ProjectID  int       `gorm:"uniqueIndex:idx_grant_user_project;not null" json:"project_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AccessGate is the resolved authorization context for one sender. It is
// re-queried on every webhook delivery; nothing is cached in process.
type AccessGate struct {
	TelegramID int64
	IsActive   bool
	IsAdmin    bool
	ProjectIDs []int
}

func (g *AccessGate) CanAccess(projectID int) bool {
	if g.IsAdmin {
		return true
	}
	for _, id := range g.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// GetAccessGate resolves a sender to active/admin status plus the accessible
// project-id set. Admins implicitly hold every active project without explicit
// grant rows. An unknown sender resolves to an inactive gate, not an error.
func GetAccessGate(db *gorm.DB, telegramID int64) (*AccessGate, error) {
	gate := &AccessGate{TelegramID: telegramID}

	var user AuthorizedUser
	err := db.Where("telegram_id = ?", telegramID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gate, nil
		}
		return nil, err
	}

	gate.IsActive = user.IsActive != nil && *user.IsActive
	gate.IsAdmin = user.IsAdmin != nil && *user.IsAdmin
	if !gate.IsActive {
		return gate, nil
	}

	if gate.IsAdmin {
		err = db.Model(&Project{}).Where("is_active = ?", true).Pluck("id", &gate.ProjectIDs).Error
	} else {
		err = db.Model(&UserProjectGrant{}).Where("telegram_id = ?", telegramID).Pluck("project_id", &gate.ProjectIDs).Error
	}
	if err != nil {
		return nil, err
	}
	return gate, nil
}

func GetAuthorizedUser(db *gorm.DB, telegramID int64) (*AuthorizedUser, error) {
	var user AuthorizedUser
	if err := db.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// RegisterUser records an unknown sender as inactive so an admin can approve
// them later. Existing rows are left untouched.
func RegisterUser(db *gorm.DB, telegramID int64, firstName, lastName string) (*AuthorizedUser, error) {
	user, err := GetAuthorizedUser(db, telegramID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	created := AuthorizedUser{
		TelegramID: telegramID,
		FirstName:  firstName,
		LastName:   lastName,
	}
	if err := db.Create(&created).Error; err != nil {
		// Duplicate /start deliveries race on the unique telegram_id; the
		// existing row wins.
		if isDuplicateEntry(err) {
			return GetAuthorizedUser(db, telegramID)
		}
		return nil, err
	}
	return &created, nil
}

func ActivateUser(db *gorm.DB, telegramID int64) error {
	res := db.Model(&AuthorizedUser{}).Where("telegram_id = ?", telegramID).Update("is_active", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ToggleGrant flips one ACL edge. Returns true when the edge now exists.
func ToggleGrant(db *gorm.DB, telegramID int64, projectID int) (bool, error) {
	var grant UserProjectGrant
	err := db.Where("telegram_id = ? AND project_id = ?", telegramID, projectID).First(&grant).Error
	if err == nil {
		if err := db.Delete(&grant).Error; err != nil {
			return false, err
		}
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	grant = UserProjectGrant{TelegramID: telegramID, ProjectID: projectID}
	if err := db.Create(&grant).Error; err != nil {
		// Two admins toggling the same edge race on the unique index; the
		// loser's duplicate insert means the edge exists, which is the outcome
		// they asked for.
		if isDuplicateEntry(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

func ListAdmins(db *gorm.DB) ([]*AuthorizedUser, error) {
	var admins []*AuthorizedUser
	if err := db.Where("is_admin = ? AND is_active = ?", true, true).Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}
