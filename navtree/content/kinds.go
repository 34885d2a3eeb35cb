package content

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Kind tags of the built-in content types
const (
	ArticleKind = "cms.article"
	LinkKind    = "cms.link"
)

var stripPolicy = bluemonday.StrictPolicy()

// dehtml strips markup and decodes entities, leaving plain text
func dehtml(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

func onSite(sites []string, v Viewer) bool {
	if len(sites) == 0 || v.Site == "" {
		return true
	}
	for _, s := range sites {
		if s == v.Site {
			return true
		}
	}
	return false
}

// ArticleStatus is the publication state of an article
type ArticleStatus string

const (
	Draft     ArticleStatus = "draft"
	Published ArticleStatus = "published"
	Archived  ArticleStatus = "archived"
)

// Valid reports whether s is a known status
func (s ArticleStatus) Valid() bool {
	switch s {
	case Draft, Published, Archived:
		return true
	}
	return false
}

// Article is a page of the site
type Article struct {
	ID       string        `yaml:"id"`
	Title    string        `yaml:"title"`
	Subtitle string        `yaml:"subtitle,omitempty"`
	Slug     string        `yaml:"slug"`
	Status   ArticleStatus `yaml:"status"`
	Homepage bool          `yaml:"homepage,omitempty"`
	Sites    []string      `yaml:"sites,omitempty"`
}

func (a *Article) ObjectID() string { return a.ID }

func (a *Article) String() string {
	return strings.TrimSpace(dehtml(a.Title) + " " + dehtml(a.Subtitle))
}

func (a *Article) Label() string { return a.Title }

func (a *Article) Field(name string) (string, bool) {
	switch name {
	case "title":
		return a.Title, true
	case "subtitle":
		return a.Subtitle, true
	case "slug":
		return a.Slug, true
	}
	return "", false
}

func (a *Article) URL() string {
	if a.Homepage {
		return "/"
	}
	return "/" + a.Slug + "/"
}

// IsAccessible: wrong site or archived never; drafts only for staff.
func (a *Article) IsAccessible(v Viewer) bool {
	if !onSite(a.Sites, v) {
		return false
	}
	switch a.Status {
	case Draft:
		return v.Staff
	case Archived:
		return false
	}
	return true
}

func (a *Article) validate() error {
	if a.Title == "" && a.Slug == "" {
		return fmt.Errorf("article %q: slug can not be empty", a.ID)
	}
	if a.Status == "" {
		a.Status = Published
	}
	if !a.Status.Valid() {
		return fmt.Errorf("article %q: unknown status %q", a.ID, a.Status)
	}
	if a.Slug == "" {
		a.Slug = slugify(a.Title)
	}
	return nil
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(dehtml(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Link points to an arbitrary URL, on this site or elsewhere
type Link struct {
	ID    string   `yaml:"id"`
	Title string   `yaml:"title"`
	Href  string   `yaml:"url"`
	Sites []string `yaml:"sites,omitempty"`
}

func (l *Link) ObjectID() string { return l.ID }

func (l *Link) String() string { return dehtml(l.Title) }

// Label is host and path for absolute URLs, the raw URL otherwise
func (l *Link) Label() string {
	u, err := url.Parse(l.Href)
	if err != nil || u.Scheme == "" {
		return l.Href
	}
	return u.Host + u.Path
}

func (l *Link) Field(name string) (string, bool) {
	switch name {
	case "title":
		return l.Title, true
	case "url":
		return l.Href, true
	}
	return "", false
}

func (l *Link) URL() string { return l.Href }

// IsExternal is true when the URL carries a scheme
func (l *Link) IsExternal() bool {
	u, err := url.Parse(l.Href)
	return err == nil && u.Scheme != ""
}

func (l *Link) IsAccessible(v Viewer) bool {
	return onSite(l.Sites, v)
}

func (l *Link) validate() error {
	if l.Href == "" {
		return fmt.Errorf("link %q: url is required", l.ID)
	}
	if l.Title == "" {
		l.Title = "title"
	}
	return nil
}
