package model

import "time"

// Identity is the registry record stored under a username. It is written
// once at registration and never changed afterwards. Pending marks a
// staged row in the identities table; it is never set on an identity
// handed out by a store.
type Identity struct {
	Username  string    `gorm:"column:username;primaryKey" json:"-"`
	Salt      string    `gorm:"column:salt" json:"salt"`
	CallerID  string    `gorm:"column:caller_id" json:"caller_id"`
	PublicKey string    `gorm:"column:public_key" json:"public_key"`
	Role      Role      `gorm:"column:role" json:"role"`
	Pending   bool      `gorm:"column:pending" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
}

func (Identity) TableName() string {
	return "identities"
}
