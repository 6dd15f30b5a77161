package domain

// CREATE TABLE user (
//     userId    BIGINT PRIMARY KEY,
//     gender    VARCHAR(16),
//     score     DOUBLE DEFAULT 0
// );

type User struct {
	UserID uint64  `gorm:"column:userId;primaryKey" json:"user_id"`
	Gender string  `gorm:"column:gender" json:"gender"`
	Score  float64 `gorm:"column:score" json:"score"`
}

func (User) TableName() string {
	return "user"
}
