package entity

// Todo is a single todo item. OwnerID references exactly one user and is
// immutable after creation.
type Todo struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Priority    int    `json:"priority" db:"priority"`
	IsComplete  bool   `json:"is_complete" db:"is_complete"`
	OwnerID     int64  `json:"owner_id" db:"owner_id"`
}
