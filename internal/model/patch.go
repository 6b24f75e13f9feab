package model

// Patch is a sparse update. A nil field is not touched; a non-nil field
// carries the value the caller sent, including empty strings and zero.
type Patch struct {
	Title         *string  `json:"title"`
	StartDatetime *string  `json:"startDatetime"`
	EndDatetime   *string  `json:"endDatetime"`
	Offset        *float64 `json:"offset"`
	GoalRef       *string  `json:"goal"`
	Location      *string  `json:"location"`
	Content       *string  `json:"content"`
}

// Float64 returns a pointer to f.
func Float64(f float64) *float64 {
	return &f
}
