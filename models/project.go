package models

import (
	"errors"
	"time"

	"github.com/nusafiber/fieldops_backend/config"
	"github.com/nusafiber/fieldops_backend/utils"
	"gorm.io/gorm"
)

type Project struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name" binding:"required"`
	Customer  string    `gorm:"size:255" json:"customer"`
	City      string    `gorm:"size:100" json:"city"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetProject(db *gorm.DB, id int) (*Project, error) {
	var project Project
	if err := db.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &project, nil
}

// FindProjectsByName matches active projects by case-insensitive substring.
// A name match alone is never trusted for authorization; callers must
// intersect the result with the caller's accessible-project set.
func FindProjectsByName(db *gorm.DB, name string) ([]*Project, error) {
	var projects []*Project
	err := db.Where("is_active = ? AND LOWER(name) LIKE ?", true, "%"+likePattern(name)+"%").
		Order("name ASC").
		Limit(config.SearchLimit).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func ListActiveProjects(db *gorm.DB) ([]*Project, error) {
	var projects []*Project
	if err := db.Where("is_active = ?", true).Order("name ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// ListDistributionNames returns the distinct non-empty distribution names known
// for a project, from both requirement rows and ledger rows. Used to build the
// distribution selector keyboard.
func ListDistributionNames(db *gorm.DB, projectID int) ([]string, error) {
	var fromReqs []string
	err := db.Model(&ProjectMaterialRequirement{}).
		Where("project_id = ? AND distribution_name <> ''", projectID).
		Distinct("distribution_name").
		Pluck("distribution_name", &fromReqs).Error
	if err != nil {
		return nil, err
	}

	var fromTxns []string
	err = db.Model(&MaterialTransaction{}).
		Where("project_id = ? AND distribution_name <> ''", projectID).
		Distinct("distribution_name").
		Pluck("distribution_name", &fromTxns).Error
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	names := make([]string, 0, len(fromReqs)+len(fromTxns))
	for _, n := range append(fromReqs, fromTxns...) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names, nil
}

func likePattern(s string) string {
	// gorm escapes the bound value; we only lower-case for the LOWER() match.
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
