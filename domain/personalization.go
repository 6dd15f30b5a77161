package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CREATE TABLE user_personalization_weights (
//     userId            BIGINT PRIMARY KEY,
//     category_weights  JSON,
//     top_keywords      JSON,
//     interaction_count INT DEFAULT 0,
//     total_visits      INT DEFAULT 0,
//     total_searches    INT DEFAULT 0,
//     csv_ratio         DOUBLE DEFAULT 1.0,
//     lastUpdatedAt     DATETIME NULL
// );
//
// Written by the offline learning job; read-only here.

type PersonalizationWeights struct {
	UserID           uint64         `gorm:"column:userId;primaryKey"`
	CategoryWeights  datatypes.JSON `gorm:"column:category_weights"`
	TopKeywords      datatypes.JSON `gorm:"column:top_keywords"`
	InteractionCount int            `gorm:"column:interaction_count"`
	TotalVisits      int            `gorm:"column:total_visits"`
	TotalSearches    int            `gorm:"column:total_searches"`
	CSVRatio         float64        `gorm:"column:csv_ratio"`
	LastUpdatedAt    *time.Time     `gorm:"column:lastUpdatedAt"`
}

func (PersonalizationWeights) TableName() string {
	return "user_personalization_weights"
}

// CREATE TABLE item_visit_history (
//     id        BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     userId    BIGINT,
//     itemDbid  BIGINT,
//     visitedAt DATETIME
// );

type ItemVisit struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"column:userId;index"`
	ItemDBID  uint64    `gorm:"column:itemDbid"`
	VisitedAt time.Time `gorm:"column:visitedAt"`
}

func (ItemVisit) TableName() string {
	return "item_visit_history"
}
