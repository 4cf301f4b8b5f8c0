package domain

// BodyMeasurement is a body weight entry. (UserID, Date) is unique.
type BodyMeasurement struct {
	Syncable
	UserID string  `json:"userId"`
	Weight float64 `json:"weight"`
	Date   string  `json:"date"` // ISO date (YYYY-MM-DD)
}
