package history

import "time"

// SearchRecord is a single city lookup. There is at most one row per city;
// searching a city again replaces its row with a fresh ID and Timestamp.
type SearchRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	City      string    `gorm:"not null;uniqueIndex:idx_search_history_city" json:"city"`
	Timestamp time.Time `gorm:"not null;index:idx_search_history_ts" json:"timestamp"` // always UTC
}

func (SearchRecord) TableName() string {
	return "search_history"
}
