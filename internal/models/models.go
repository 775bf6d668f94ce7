package models

import (
	"time"
)

type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleViewer     Role = "Viewer"
	RoleLecture    Role = "Lecture"
	RoleSuperAdmin Role = "SuperAdmin"
)

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleViewer, RoleLecture, RoleSuperAdmin:
		return true
	}
	return false
}

type User struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string     `json:"name"`
	Email          string     `gorm:"unique;not null"          json:"email"`
	ProfilePicture string     `json:"profile_picture"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Role           Role       `gorm:"not null"                 json:"role"`
	PasswordHash   string     `gorm:"not null"                 json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Question is a multiple-choice exam question with exactly 4 options.
type Question struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// PublicQuestion is a Question without the correct answer index.
type PublicQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type Course struct {
	ID                     uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseName             string     `gorm:"not null"                 json:"course_name"`
	Price                  float64    `json:"price"`
	ThumbnailURL           string     `json:"thumbnail_url"`
	VideoURL               string     `json:"video_url"`
	PPTURL                 string     `json:"ppt_url"`
	Description            string     `json:"description"`
	CertificateTemplateURL string     `gorm:"not null"                 json:"certificate_template_url"`
	Questions              []Question `gorm:"serializer:json"          json:"questions,omitempty"`
	CreatedBy              uint       `gorm:"index;not null"           json:"created_by"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

type ExamSubmission struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"             json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_course;not null" json:"user_id"`
	CourseID  uint      `gorm:"uniqueIndex:idx_user_course;not null" json:"course_id"`
	Answers   []int     `gorm:"serializer:json"                      json:"answers"`
	Score     int       `gorm:"not null"                             json:"score"`
	Total     int       `gorm:"not null"                             json:"total"`
	Percent   int       `gorm:"not null"                             json:"percent"`
	Passed    bool      `gorm:"not null"                             json:"passed"`
	CreatedAt time.Time `json:"submitted_at"`
	UpdatedAt time.Time `json:"-"`
}

type ActivityLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Category    string    `gorm:"index"                    json:"category"`
	Description string    `json:"description"`
	UserEmail   string    `gorm:"index"                    json:"user_email"`
	UserName    string    `json:"user_name"`
	CreatedAt   time.Time `json:"created_at"`
}
