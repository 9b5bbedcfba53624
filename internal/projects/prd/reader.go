package prd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusPartial    Status = "partial"
	StatusComplete   Status = "complete"
)

const digestMaxRunes = 100

// StatusFileLocations are checked in order when scanning a project folder.
var StatusFileLocations = []string{
	"docs/prds/.prd-status.json",
	".prd-status.json",
	"frontend/docs/prds/.prd-status.json",
}

// AgentFileLocations are checked in order for the project's agent instructions.
var AgentFileLocations = []string{
	"CLAUDE.md",
	"agent.md",
	"frontend/CLAUDE.md",
}

type Entry struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	File                string `json:"file,omitempty"`
	Status              Status `json:"status"`
	Priority            string `json:"priority,omitempty"`
	Phase               string `json:"phase,omitempty"`
	ImplementationNotes string `json:"implementation_notes,omitempty"`
}

// UnmarshalJSON accepts both camelCase and snake_case note keys and a
// numeric or string priority.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID                  string          `json:"id"`
		Name                string          `json:"name"`
		File                string          `json:"file"`
		Status              Status          `json:"status"`
		Priority            json.RawMessage `json:"priority"`
		Phase               json.RawMessage `json:"phase"`
		ImplementationNotes string          `json:"implementationNotes"`
		ImplementationSnake string          `json:"implementation_notes"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	e.ID = raw.ID
	e.Name = raw.Name
	e.File = raw.File
	e.Status = raw.Status
	if e.Status == "" {
		e.Status = StatusNotStarted
	}
	e.Priority = scalarString(raw.Priority)
	e.Phase = scalarString(raw.Phase)
	e.ImplementationNotes = raw.ImplementationNotes
	if e.ImplementationNotes == "" {
		e.ImplementationNotes = raw.ImplementationSnake
	}
	return nil
}

func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}

// Summary is the parsed content of a project's status file.
type Summary struct {
	Project  string         `json:"project"`
	Total    int            `json:"total"`
	Current  *Entry         `json:"current,omitempty"`
	Next     *Entry         `json:"next,omitempty"`
	ByStatus map[Status]int `json:"by_status"`
}

func Parse(data []byte) (*Summary, error) {
	var doc struct {
		PRDs []Entry `json:"prds"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse prd status: %w", err)
	}

	s := &Summary{Total: len(doc.PRDs), ByStatus: map[Status]int{}}
	for i := range doc.PRDs {
		e := doc.PRDs[i]
		s.ByStatus[e.Status]++
		switch {
		case e.Status == StatusInProgress && s.Current == nil:
			s.Current = &e
		case e.Status == StatusNotStarted && s.Next == nil:
			s.Next = &e
		}
	}
	return s, nil
}

// Read loads the status file referenced by the project.
func Read(p domain.Project) (*Summary, error) {
	if p.Path == "" || p.PRDStatusPath == "" {
		return nil, domain.ErrNoPRDStatus
	}
	data, err := os.ReadFile(filepath.Join(p.Path, p.PRDStatusPath))
	if err != nil {
		return nil, fmt.Errorf("read prd status: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	s.Project = p.Name
	return s, nil
}

// Digest returns one line describing the project's current or next PRD.
// An empty string with a nil error means there is nothing worth showing.
func Digest(p domain.Project) (string, error) {
	s, err := Read(p)
	if err != nil {
		return "", err
	}
	return s.Digest(), nil
}

func (s *Summary) Digest() string {
	var line string
	switch {
	case s.Current != nil:
		line = fmt.Sprintf("%s: %s", s.Current.ID, s.Current.Name)
		if s.Current.ImplementationNotes != "" {
			line += " - " + s.Current.ImplementationNotes
		}
	case s.Next != nil:
		line = fmt.Sprintf("Next: %s: %s", s.Next.ID, s.Next.Name)
	default:
		return ""
	}
	return truncateRunes(line, digestMaxRunes)
}

// Markdown renders the full status report.
func (s *Summary) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# PRD Status: %s\n\n", s.Project)
	fmt.Fprintf(&b, "**Total PRDs**: %d\n", s.Total)

	b.WriteString("\n## Currently Working On\n")
	if s.Current != nil {
		fmt.Fprintf(&b, "**%s**: %s\n", s.Current.ID, s.Current.Name)
		fmt.Fprintf(&b, "- Status: %s\n", s.Current.Status)
		if s.Current.Priority != "" {
			fmt.Fprintf(&b, "- Priority: %s\n", s.Current.Priority)
		}
		if s.Current.ImplementationNotes != "" {
			fmt.Fprintf(&b, "- Notes: %s\n", s.Current.ImplementationNotes)
		}
	} else {
		b.WriteString("No PRD currently in progress.\n")
	}

	if s.Next != nil {
		b.WriteString("\n## Next Up\n")
		fmt.Fprintf(&b, "**%s**: %s\n", s.Next.ID, s.Next.Name)
		if s.Next.Priority != "" {
			fmt.Fprintf(&b, "- Priority: %s\n", s.Next.Priority)
		}
	}

	statuses := make([]string, 0, len(s.ByStatus))
	for st := range s.ByStatus {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)

	b.WriteString("\n## Summary\n")
	for _, st := range statuses {
		fmt.Fprintf(&b, "- %s: %d\n", st, s.ByStatus[Status(st)])
	}
	return strings.TrimRight(b.String(), "\n")
}

// Detect returns the first status file and agent file found under dir,
// relative to dir. Either may be empty.
func Detect(dir string) (statusPath, agentPath string) {
	for _, loc := range StatusFileLocations {
		if fileExists(filepath.Join(dir, loc)) {
			statusPath = loc
			break
		}
	}
	for _, loc := range AgentFileLocations {
		if fileExists(filepath.Join(dir, loc)) {
			agentPath = loc
			break
		}
	}
	return statusPath, agentPath
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
