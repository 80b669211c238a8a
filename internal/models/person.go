package models

type Person struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"-"` // optional notification address
}
