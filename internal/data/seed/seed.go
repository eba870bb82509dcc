// Package seed loads module content from YAML into the database.
package seed

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/yungbote/modulegate-backend/internal/data/repos"
	types "github.com/yungbote/modulegate-backend/internal/domain"
	"github.com/yungbote/modulegate-backend/internal/platform/dbctx"
)

type File struct {
	Modules []Module `yaml:"modules"`
}

type Module struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Points      int      `yaml:"points"`
	Locked      bool     `yaml:"locked"`
	Lessons     []Lesson `yaml:"lessons"`
}

type Lesson struct {
	Title     string     `yaml:"title"`
	BodyMD    string     `yaml:"body_md"`
	Questions []Question `yaml:"questions"`
}

type Question struct {
	Prompt       string   `yaml:"prompt"`
	Options      []string `yaml:"options"`
	CorrectIndex int      `yaml:"correct_index"`
	Explanation  string   `yaml:"explanation"`
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) Validate() error {
	if len(f.Modules) == 0 {
		return fmt.Errorf("seed file has no modules")
	}
	for mi, m := range f.Modules {
		if strings.TrimSpace(m.Title) == "" {
			return fmt.Errorf("module %d: title is required", mi)
		}
		if m.Points < 0 {
			return fmt.Errorf("module %q: points must not be negative", m.Title)
		}
		for li, l := range m.Lessons {
			if strings.TrimSpace(l.Title) == "" {
				return fmt.Errorf("module %q lesson %d: title is required", m.Title, li)
			}
			for qi, q := range l.Questions {
				if len(q.Options) < 2 {
					return fmt.Errorf("module %q lesson %q question %d: at least two options required", m.Title, l.Title, qi)
				}
				if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
					return fmt.Errorf("module %q lesson %q question %d: correct_index out of range", m.Title, l.Title, qi)
				}
			}
		}
	}
	return nil
}

type Result struct {
	Created []string
	Skipped []string
}

// Apply inserts every module whose title is not already present. Existing
// modules are left untouched.
func Apply(dbc dbctx.Context, set *repos.Set, f *File) (Result, error) {
	var res Result
	existing, err := set.Modules.List(dbc, true)
	if err != nil {
		return res, err
	}
	seen := make(map[string]bool, len(existing))
	for _, m := range existing {
		seen[strings.ToLower(strings.TrimSpace(m.Title))] = true
	}

	for _, m := range f.Modules {
		key := strings.ToLower(strings.TrimSpace(m.Title))
		if seen[key] {
			res.Skipped = append(res.Skipped, m.Title)
			continue
		}
		if err := applyModule(dbc, set, m); err != nil {
			return res, fmt.Errorf("module %q: %w", m.Title, err)
		}
		seen[key] = true
		res.Created = append(res.Created, m.Title)
	}
	return res, nil
}

func applyModule(dbc dbctx.Context, set *repos.Set, m Module) error {
	rows, err := set.Modules.Create(dbc, []*types.Module{{
		Title:       strings.TrimSpace(m.Title),
		Description: m.Description,
		Points:      m.Points,
		Locked:      m.Locked,
	}})
	if err != nil {
		return err
	}
	moduleID := rows[0].ID

	for li, l := range m.Lessons {
		lessons, err := set.Lessons.Create(dbc, []*types.Lesson{{
			ModuleID:   moduleID,
			OrderIndex: li + 1,
			Title:      strings.TrimSpace(l.Title),
			BodyMD:     l.BodyMD,
			Metadata:   datatypes.JSON([]byte("{}")),
		}})
		if err != nil {
			return err
		}
		if len(l.Questions) == 0 {
			continue
		}
		qs := make([]*types.QuizQuestion, 0, len(l.Questions))
		for qi, q := range l.Questions {
			opts, err := json.Marshal(q.Options)
			if err != nil {
				return err
			}
			qs = append(qs, &types.QuizQuestion{
				LessonID:     lessons[0].ID,
				OrderIndex:   qi + 1,
				Prompt:       q.Prompt,
				Options:      datatypes.JSON(opts),
				CorrectIndex: q.CorrectIndex,
				Explanation:  q.Explanation,
			})
		}
		if _, err := set.Questions.Create(dbc, qs); err != nil {
			return err
		}
	}
	return nil
}
