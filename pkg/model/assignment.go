package model

// Assignment places a session in a classroom for Duration consecutive timeslots starting at Start
type Assignment struct {
	Session   uint64 `json:"session" db:"session_id"`
	Start     uint64 `json:"start" db:"start_timeslot"`
	Classroom uint64 `json:"classroom" db:"classroom_id"`
}
