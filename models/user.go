package models

// User is a back office account. Password holds a bcrypt hash.
type User struct {
	ID       uint   `gorm:"primaryKey"`
	Username string `gorm:"size:20;uniqueIndex;not null"`
	Password string `gorm:"size:60;not null"`
}

func (u *User) TableName() string {
	return "users"
}
