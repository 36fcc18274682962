package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecentCompletionsLimit is how many completions the writing page shows.
const RecentCompletionsLimit = 5

// Completion is one recorded prompt/answer pair. Rows are never updated.
type Completion struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Seq       int64             `json:"-" gorm:"autoIncrement;not null"`
	UserID    uuid.UUID         `json:"userId" gorm:"type:uuid;not null;index"`
	Prompt    string            `json:"prompt" gorm:"not null"`
	Answer    string            `json:"answer" gorm:"not null"`
	Tokens    int               `json:"tokens" gorm:"not null"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"createdAt"`
}
