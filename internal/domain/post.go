package domain

import "time"

type Post struct {
	ID        string
	Title     string
	Body      string
	Author    string // free-form label, not an account reference
	Likes     int
	Comments  []Comment
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Comment struct {
	Body string
}

type Account struct {
	ID    string
	Name  string
	Email string
}
