// Package fixture runs a small tracker-compatible REST server backed by
// SQLite, seeded from YAML. It serves local demos and end-to-end tests.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/alexanderramin/tierboard/internal/db"
	"github.com/alexanderramin/tierboard/internal/domain"
	"github.com/alexanderramin/tierboard/internal/repository"
	"gopkg.in/yaml.v3"
)

// Seed is the YAML document loaded into the fixture database.
type Seed struct {
	Projects     []SeedProject `yaml:"projects"`
	Users        []SeedUser    `yaml:"users"`
	Statuses     []SeedStatus  `yaml:"statuses"`
	CustomFields []SeedField   `yaml:"custom_fields"`
	Groups       []SeedGroup   `yaml:"groups"`
	Issues       []SeedIssue   `yaml:"issues"`
}

type SeedProject struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type SeedUser struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Login string `yaml:"login"`
}

type SeedStatus struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	Closed bool   `yaml:"closed"`
}

type SeedField struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Multiple bool   `yaml:"multiple"`
}

type SeedGroup struct {
	ID      int    `yaml:"id"`
	Name    string `yaml:"name"`
	Members []int  `yaml:"members"`
}

type SeedIssue struct {
	ID        int                   `yaml:"id"`
	Project   int                   `yaml:"project"`
	Parent    int                   `yaml:"parent"`
	Subject   string                `yaml:"subject"`
	Status    int                   `yaml:"status"`
	Assignee  int                   `yaml:"assignee"`
	Watchers  []int                 `yaml:"watchers"`
	DoneRatio int                   `yaml:"done_ratio"`
	Fields    map[string]SeedValues `yaml:"fields"`
}

// SeedValues accepts either a scalar or a list in YAML.
type SeedValues []string

func (v *SeedValues) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*v = SeedValues{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*v = list
		return nil
	default:
		return fmt.Errorf("line %d: field value must be a scalar or a list", node.Line)
	}
}

// LoadSeed reads and validates a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed: %w", err)
	}
	seed, err := ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return seed, nil
}

// ParseSeed decodes and validates a seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate reports every dangling reference in the seed. Issue parents may
// point outside the seed on purpose; they model unavailable items.
func (s *Seed) Validate() error {
	var errs []error
	projects := idSet(len(s.Projects), func(i int) int { return s.Projects[i].ID })
	users := idSet(len(s.Users), func(i int) int { return s.Users[i].ID })
	statuses := idSet(len(s.Statuses), func(i int) int { return s.Statuses[i].ID })
	for _, id := range []int{1, 2, 5} {
		statuses[id] = struct{}{}
	}
	fields := make(map[string]struct{}, len(s.CustomFields))
	for _, f := range s.CustomFields {
		fields[f.Name] = struct{}{}
	}

	for _, g := range s.Groups {
		for _, uid := range g.Members {
			if _, ok := users[uid]; !ok {
				errs = append(errs, fmt.Errorf("group %q: unknown member %d", g.Name, uid))
			}
		}
	}
	seen := make(map[int]struct{}, len(s.Issues))
	for _, is := range s.Issues {
		if is.ID <= 0 {
			errs = append(errs, fmt.Errorf("issue %q: id must be positive", is.Subject))
			continue
		}
		if _, dup := seen[is.ID]; dup {
			errs = append(errs, fmt.Errorf("issue #%d: duplicate id", is.ID))
		}
		seen[is.ID] = struct{}{}
		if is.Subject == "" {
			errs = append(errs, fmt.Errorf("issue #%d: subject is required", is.ID))
		}
		if _, ok := projects[is.Project]; !ok {
			errs = append(errs, fmt.Errorf("issue #%d: unknown project %d", is.ID, is.Project))
		}
		if is.Status != 0 {
			if _, ok := statuses[is.Status]; !ok {
				errs = append(errs, fmt.Errorf("issue #%d: unknown status %d", is.ID, is.Status))
			}
		}
		if is.Assignee != 0 {
			if _, ok := users[is.Assignee]; !ok {
				errs = append(errs, fmt.Errorf("issue #%d: unknown assignee %d", is.ID, is.Assignee))
			}
		}
		for _, w := range is.Watchers {
			if _, ok := users[w]; !ok {
				errs = append(errs, fmt.Errorf("issue #%d: unknown watcher %d", is.ID, w))
			}
		}
		if is.DoneRatio < 0 || is.DoneRatio > 100 {
			errs = append(errs, fmt.Errorf("issue #%d: done_ratio %d outside 0..100", is.ID, is.DoneRatio))
		}
		for name := range is.Fields {
			if _, ok := fields[name]; !ok {
				errs = append(errs, fmt.Errorf("issue #%d: unknown custom field %q", is.ID, name))
			}
		}
	}
	return errors.Join(errs...)
}

// Apply writes the seed in one transaction.
func (s *Seed) Apply(ctx context.Context, uow db.UnitOfWork) error {
	return uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		dir := repository.NewSQLiteDirectoryRepo(tx)
		for _, p := range s.Projects {
			if err := dir.UpsertProject(ctx, domain.IDName{ID: p.ID, Name: p.Name}); err != nil {
				return err
			}
		}
		for _, u := range s.Users {
			if err := dir.UpsertUser(ctx, domain.User{ID: u.ID, Name: u.Name, Login: u.Login}); err != nil {
				return err
			}
		}
		for i, st := range s.Statuses {
			if err := dir.UpsertStatus(ctx, domain.Status{ID: st.ID, Name: st.Name, IsClosed: st.Closed}, i+1); err != nil {
				return err
			}
		}
		fieldByName := make(map[string]SeedField, len(s.CustomFields))
		for _, f := range s.CustomFields {
			if err := dir.UpsertCustomField(ctx, repository.CustomFieldDef{ID: f.ID, Name: f.Name, Multiple: f.Multiple}); err != nil {
				return err
			}
			fieldByName[f.Name] = f
		}

		groups := repository.NewSQLiteGroupRepo(tx)
		for _, g := range s.Groups {
			users := make([]domain.User, 0, len(g.Members))
			for _, uid := range g.Members {
				users = append(users, domain.User{ID: uid})
			}
			if err := groups.Upsert(ctx, domain.Group{ID: g.ID, Name: g.Name, Users: users}); err != nil {
				return err
			}
		}

		issues := repository.NewSQLiteIssueRepo(tx)
		for _, is := range s.Issues {
			if err := issues.Create(ctx, is.item(fieldByName)); err != nil {
				return fmt.Errorf("seeding issue #%d: %w", is.ID, err)
			}
		}
		return nil
	})
}

func (is SeedIssue) item(fields map[string]SeedField) *domain.Item {
	it := &domain.Item{
		ID:        is.ID,
		Subject:   is.Subject,
		DoneRatio: is.DoneRatio,
		Project:   domain.IDName{ID: is.Project},
	}
	if is.Parent != 0 {
		it.Parent = &domain.IDRef{ID: is.Parent}
	}
	if is.Status != 0 {
		it.Status = &domain.Status{ID: is.Status}
	}
	if is.Assignee != 0 {
		it.AssignedTo = &domain.IDName{ID: is.Assignee}
	}
	for _, w := range is.Watchers {
		it.Watchers = append(it.Watchers, domain.IDName{ID: w})
	}

	names := make([]string, 0, len(is.Fields))
	for name := range is.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := fields[name]
		cf := domain.CustomField{ID: def.ID, Name: def.Name, Multiple: def.Multiple}
		if def.Multiple {
			cf.Value = domain.ListValue(is.Fields[name]...)
		} else {
			cf.Value = domain.StringValue(firstOrEmpty(is.Fields[name]))
		}
		it.CustomFields = append(it.CustomFields, cf)
	}
	return it
}

func firstOrEmpty(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func idSet(n int, id func(int) int) map[int]struct{} {
	set := make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		set[id(i)] = struct{}{}
	}
	return set
}
