package domain

import (
	"time"
)

// CREATE TABLE items (
//     dbid            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     id              VARCHAR(64),
//     title           TEXT,
//     category        TEXT NULL,
//     price           DOUBLE NULL,
//     status          TINYINT DEFAULT 1,
//     first_thumbnail TEXT NULL,
//     createdAt       DATETIME
// );

const ItemStatusActive = 1

type Item struct {
	DBID          uint64    `gorm:"column:dbid;primaryKey;autoIncrement" json:"dbid"`
	ExternalID    string    `gorm:"column:id" json:"id"`
	Title         string    `gorm:"column:title;type:text" json:"title"`
	Category      string    `gorm:"column:category" json:"category"`
	Price         *float64  `gorm:"column:price" json:"price"`
	Status        int       `gorm:"column:status;default:1" json:"-"`
	ThumbnailPath string    `gorm:"column:first_thumbnail" json:"-"`
	CreatedAt     time.Time `gorm:"column:createdAt" json:"created_at"`

	// RelevanceScore is recomputed at each scoring stage; it is never
	// persisted.
	RelevanceScore float64 `gorm:"-" json:"relevance_score"`
}

func (Item) TableName() string {
	return "items"
}
