package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"edublog/internal/domain"
)

func ago(t time.Time) string {
	if t.IsZero() {
		return "unknown date"
	}
	return humanize.Time(t)
}

func renderPostLine(w io.Writer, p domain.Post) {
	fmt.Fprintf(w, "%s  %s\n", p.ID, p.Title)
	fmt.Fprintf(w, "    by %s, %s, %s, %s\n",
		p.Author,
		ago(p.CreatedAt),
		plural(p.Likes, "like"),
		plural(len(p.Comments), "comment"),
	)
}

func renderPosts(w io.Writer, posts []domain.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "no posts")
		return
	}
	for _, p := range posts {
		renderPostLine(w, p)
	}
}

func renderPost(w io.Writer, p *domain.Post, liked bool) {
	fmt.Fprintln(w, p.Title)
	fmt.Fprintln(w, strings.Repeat("=", len([]rune(p.Title))))
	fmt.Fprintf(w, "by %s, %s", p.Author, ago(p.CreatedAt))
	if p.UpdatedAt.After(p.CreatedAt) {
		fmt.Fprintf(w, " (edited %s)", ago(p.UpdatedAt))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Body)
	fmt.Fprintln(w)

	likes := plural(p.Likes, "like")
	if liked {
		likes += ", including yours"
	}
	fmt.Fprintln(w, likes)

	if len(p.Comments) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", plural(len(p.Comments), "comment"))
	for _, c := range p.Comments {
		fmt.Fprintf(w, "  - %s\n", c.Body)
	}
}

func renderAccounts(w io.Writer, accounts []domain.Account) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.ID, a.Name, a.Email)
	}
	return tw.Flush()
}

func renderAccount(w io.Writer, a *domain.Account) {
	fmt.Fprintf(w, "id:    %s\nname:  %s\nemail: %s\n", a.ID, a.Name, a.Email)
}

func plural(n int, noun string) string {
	s := humanize.Comma(int64(n)) + " " + noun
	if n != 1 {
		s += "s"
	}
	return s
}
