package braindump

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Completer is the language model used to pull action items out of a dump.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Store keeps brain dumps as markdown files under <workspace>/brain-dumps.
type Store struct {
	root string
	llm  Completer
	loc  *time.Location
	now  func() time.Time
}

func NewStore(workspace string, llm Completer, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{root: filepath.Join(workspace, DirName), llm: llm, loc: loc, now: time.Now}
}

func (s *Store) Root() string { return s.root }

// PathFor returns brain-dumps/YYYY/MM-month/YYYY-MM-DD_HHMM_<slug>.md.
func (s *Store) PathFor(title string, at time.Time) string {
	month := strings.ToLower(at.Format("01-January"))
	name := at.Format(fileTimeLayout) + "_" + Slug(title) + ".md"
	return filepath.Join(s.root, at.Format("2006"), month, name)
}

type CreateInput struct {
	Content string `json:"content"`
	Title   string `json:"title,omitempty"`
	Source  string `json:"source,omitempty"`
}

func (s *Store) Create(ctx context.Context, in CreateInput) (*Dump, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = TitleFrom(content)
	}
	at := s.now().In(s.loc)

	d := &Dump{
		FrontMatter: FrontMatter{
			ID:        uuid.New().String(),
			Title:     title,
			CreatedAt: at,
			Source:    in.Source,
		},
		Path:    s.PathFor(title, at),
		Content: content,
	}

	body, err := encode(d)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(d.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create brain dump dir: %w", err)
	}
	if err := os.WriteFile(d.Path, body, 0o644); err != nil {
		return nil, fmt.Errorf("write brain dump: %w", err)
	}
	return d, nil
}

func encode(d *Dump) ([]byte, error) {
	fm, err := yaml.Marshal(d.FrontMatter)
	if err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	fmt.Fprintf(&b, "**Date**: %s\n\n", d.CreatedAt.Format("Monday, January 02, 2006 at 3:04 PM"))
	b.WriteString("## Raw Dump\n\n")
	b.WriteString(d.Content)
	b.WriteString("\n")
	return b.Bytes(), nil
}

// Load parses a dump file. Files without front matter fall back to the
// first heading and the timestamp in the file name.
func Load(path string) (*Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read brain dump: %w", err)
	}

	d := &Dump{Path: path}
	body := string(data)
	if rest, ok := strings.CutPrefix(body, "---\n"); ok {
		if fm, after, found := strings.Cut(rest, "\n---\n"); found {
			if err := yaml.Unmarshal([]byte(fm), &d.FrontMatter); err != nil {
				return nil, fmt.Errorf("parse front matter %s: %w", path, err)
			}
			body = after
		}
	}
	d.Content = strings.TrimSpace(body)

	if d.Title == "" {
		for _, line := range strings.Split(d.Content, "\n") {
			if strings.HasPrefix(line, "#") {
				d.Title = strings.TrimSpace(strings.TrimLeft(line, "#"))
				break
			}
		}
	}
	if d.Title == "" {
		d.Title = "Untitled"
	}
	if d.CreatedAt.IsZero() {
		if at, ok := timeFromName(path); ok {
			d.CreatedAt = at
		}
	}
	return d, nil
}

func timeFromName(path string) (time.Time, bool) {
	base := filepath.Base(path)
	if len(base) < len(fileTimeLayout) {
		return time.Time{}, false
	}
	at, err := time.ParseInLocation(fileTimeLayout, base[:len(fileTimeLayout)], time.Local)
	return at, err == nil
}

// files lists every dump path, newest first by file name.
func (s *Store) files() ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("walk brain dumps: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return filepath.Base(out[i]) > filepath.Base(out[j])
	})
	return out, nil
}

// Search returns dumps containing query (case-insensitive), newest first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 5
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, fmt.Errorf("query is required")
	}

	paths, err := s.files()
	if err != nil {
		return nil, err
	}

	out := make([]Match, 0, limit)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(out) == limit {
			break
		}
		d, err := Load(p)
		if err != nil {
			log.Printf("[braindump] skip %s: %v", p, err)
			continue
		}
		if !strings.Contains(strings.ToLower(d.Title+"\n"+d.Content), q) {
			continue
		}
		m := Match{Title: d.Title, Path: p, Date: d.CreatedAt.Format("2006-01-02")}
		for _, line := range strings.Split(d.Content, "\n") {
			if strings.Contains(strings.ToLower(line), q) {
				m.Excerpt = excerpt(line)
				break
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// Recent returns the newest dumps, without their bodies.
func (s *Store) Recent(ctx context.Context, limit int) ([]Dump, error) {
	if limit <= 0 {
		limit = 5
	}
	paths, err := s.files()
	if err != nil {
		return nil, err
	}
	out := make([]Dump, 0, limit)
	for _, p := range paths {
		if len(out) == limit {
			break
		}
		d, err := Load(p)
		if err != nil {
			log.Printf("[braindump] skip %s: %v", p, err)
			continue
		}
		d.Content = ""
		out = append(out, *d)
	}
	return out, nil
}

// Since returns dumps created at or after t, newest first.
func (s *Store) Since(ctx context.Context, t time.Time) ([]Dump, error) {
	paths, err := s.files()
	if err != nil {
		return nil, err
	}
	var out []Dump
	for _, p := range paths {
		d, err := Load(p)
		if err != nil {
			continue
		}
		if d.CreatedAt.Before(t) {
			continue
		}
		d.Content = ""
		out = append(out, *d)
	}
	return out, nil
}

const extractPrompt = `Analyze this brain dump and extract action items.

Classify each item as:
- SIGNAL: must be done in the next 18 hours and directly moves the needle
- LATER: important but can wait
- NOISE: defer, delegate or delete

Name the related project for each item, or "Personal".

Brain dump:
---
%s
---

Respond in this format:

## Action Items

### Signal (Top Priority)
- [ ] <item> -> <project>

### Later
- [ ] <item> -> <project>

### Noise (Defer/Delete)
- [ ] <item> -> <reason>
`

// ExtractActionItems asks the model for classified action items and appends
// them to the dump file.
func (s *Store) ExtractActionItems(ctx context.Context, path string) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("no language model configured")
	}
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(s.root)+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	d, err := Load(path)
	if err != nil {
		return "", err
	}

	items, err := s.llm.Complete(ctx, fmt.Sprintf(extractPrompt, d.Content))
	if err != nil {
		return "", fmt.Errorf("extract action items: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open brain dump: %w", err)
	}
	defer f.Close()

	stamp := s.now().In(s.loc).Format("3:04 PM")
	if _, err := fmt.Fprintf(f, "\n---\n\n## Extracted Action Items\n\n%s\n\n*Analyzed at %s*\n", strings.TrimSpace(items), stamp); err != nil {
		return "", fmt.Errorf("append action items: %w", err)
	}
	return items, nil
}
