package braindump

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	DirName        = "brain-dumps"
	maxSlugLen     = 50
	maxTitleSource = 50
	maxExcerpt     = 200
	defaultTitle   = "Brain Dump"
	fileTimeLayout = "2006-01-02_1504"
)

var (
	ErrEmptyContent = errors.New("brain dump content is empty")
	ErrNotFound     = errors.New("brain dump not found")
)

// FrontMatter is the YAML header written at the top of every dump file.
type FrontMatter struct {
	ID        string    `yaml:"id" json:"id"`
	Title     string    `yaml:"title" json:"title"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	Source    string    `yaml:"source,omitempty" json:"source,omitempty"`
}

type Dump struct {
	FrontMatter
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
}

type Match struct {
	Title   string `json:"title"`
	Path    string `json:"path"`
	Date    string `json:"date"`
	Excerpt string `json:"excerpt,omitempty"`
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases the title and joins alphanumeric runs with "-", capped at 50 chars.
func Slug(title string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	return s
}

var titleStrip = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

// TitleFrom derives a title from the first line of the content.
func TitleFrom(content string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(content), "\n")
	r := []rune(first)
	if len(r) > maxTitleSource {
		r = r[:maxTitleSource]
	}
	title := strings.TrimSpace(titleStrip.ReplaceAllString(string(r), ""))
	if title == "" {
		return defaultTitle
	}
	return title
}

func excerpt(line string) string {
	r := []rune(strings.TrimSpace(line))
	if len(r) > maxExcerpt {
		r = r[:maxExcerpt]
	}
	return string(r)
}
