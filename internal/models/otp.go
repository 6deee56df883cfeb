package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPVerification - одна выдача одноразового кода для подтверждения телефона.
type OTPVerification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Phone     string     `db:"phone" json:"phone"`
	Code      string     `db:"code" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	Verified  bool       `db:"verified" json:"verified"`
	Attempts  int        `db:"attempts" json:"attempts"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// OTPLookup определяет, как искать последнюю запись: по пользователю и телефону
// или только по телефону (неавторизованный вызов).
type OTPLookup struct {
	UserID *uuid.UUID
	Phone  string
}
