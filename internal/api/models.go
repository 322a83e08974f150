package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/araddon/dateparse"

	"edublog/internal/domain"
)

// Wire representations of the backend payloads.

type postPayload struct {
	ID        string           `json:"_id"`
	Title     string           `json:"titulo"`
	Body      string           `json:"conteudo"`
	Author    string           `json:"autor"`
	Likes     int              `json:"curtidas"`
	Comments  []commentPayload `json:"comentarios"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
}

type commentPayload struct {
	Body string `json:"conteudo"`
}

type accountPayload struct {
	ID    string `json:"_id"`
	Name  string `json:"nome"`
	Email string `json:"email"`
}

type createPostRequest struct {
	Title  string `json:"titulo"`
	Body   string `json:"conteudo"`
	Author string `json:"autor"`
}

type updatePostRequest struct {
	Title string `json:"titulo"`
	Body  string `json:"conteudo"`
}

type likeResponse struct {
	Likes int `json:"curtidas"`
}

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"senha"`
}

type loginResponse struct {
	Token string `json:"token"`
	Name  string `json:"nome"`
	Email string `json:"email"`
}

type accountRequest struct {
	Name   string  `json:"nome,omitempty"`
	Email  string  `json:"email,omitempty"`
	Secret *string `json:"senha,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// decodeList maps a listing body to its elements. Anything that is not a JSON
// array of T is an empty listing; ok reports whether the body was usable.
func decodeList[T any](body []byte) (items []T, ok bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *Client) transformPost(p postPayload) domain.Post {
	post := domain.Post{
		ID:        p.ID,
		Title:     p.Title,
		Body:      p.Body,
		Author:    p.Author,
		Likes:     max(p.Likes, 0),
		CreatedAt: c.parseTime(p.ID, "createdAt", p.CreatedAt),
		UpdatedAt: c.parseTime(p.ID, "updatedAt", p.UpdatedAt),
	}

	for _, cm := range p.Comments {
		post.Comments = append(post.Comments, domain.Comment{Body: cm.Body})
	}

	return post
}

func (c *Client) transformPosts(payloads []postPayload) []domain.Post {
	posts := make([]domain.Post, 0, len(payloads))
	for _, p := range payloads {
		posts = append(posts, c.transformPost(p))
	}
	return posts
}

func transformAccount(a accountPayload) domain.Account {
	return domain.Account{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
	}
}

func (c *Client) parseTime(id, field, value string) time.Time {
	if value == "" {
		return time.Time{}
	}

	t, err := dateparse.ParseAny(value)
	if err != nil {
		c.logger.Warn("failed to parse timestamp",
			"post_id", id,
			"field", field,
			"value", value,
		)
		return time.Time{}
	}
	return t
}
