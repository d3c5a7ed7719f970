package store

import (
	"time"

	"gorm.io/datatypes"
)

// Run is one parsed tracefile kept in the history.
type Run struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Source string `gorm:"type:varchar(1024);index" json:"source"`
	Mode   string `gorm:"type:varchar(10);not null" json:"mode"`

	// Totals of the report
	LineTotal     int `json:"line_total"`
	LineHit       int `json:"line_hit"`
	FunctionTotal int `json:"function_total"`
	FunctionHit   int `json:"function_hit"`
	BranchTotal   int `json:"branch_total"`
	BranchHit     int `json:"branch_hit"`
	PathCount     int `json:"path_count"`

	// Full report document as serialized by the parse command
	Payload datatypes.JSON `gorm:"type:json" json:"payload,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	Paths []PathSummary `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"paths,omitempty"`
}

// PathSummary holds the counters of one source file of a run.
type PathSummary struct {
	ID    uint   `gorm:"primaryKey" json:"-"`
	RunID uint   `gorm:"index;not null" json:"-"`
	Path  string `gorm:"type:varchar(1024);not null" json:"path"`

	LineTotal     int `json:"line_total"`
	LineHit       int `json:"line_hit"`
	FunctionTotal int `json:"function_total"`
	FunctionHit   int `json:"function_hit"`
	BranchTotal   int `json:"branch_total"`
	BranchHit     int `json:"branch_hit"`
}

// LinePercent returns the line coverage of the run in percent.
func (r Run) LinePercent() float64 {
	if r.LineTotal == 0 {
		return 0
	}
	return float64(r.LineHit) * 100 / float64(r.LineTotal)
}
