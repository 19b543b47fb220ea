package log

import "time"

// Log represents one API request/response pair persisted by the async logger
type Log struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Method          string    `gorm:"type:varchar(10);index" json:"method"`
	URL             string    `gorm:"type:varchar(500)" json:"url"`
	RequestBody     string    `gorm:"type:text" json:"request_body"`
	ResponseBody    string    `gorm:"type:text" json:"response_body"`
	RequestHeaders  string    `gorm:"type:text" json:"request_headers"`
	ResponseHeaders string    `gorm:"type:text" json:"response_headers"`
	StatusCode      int       `gorm:"index" json:"status_code"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName sets the table name for the Log model
func (Log) TableName() string {
	return "logs"
}
