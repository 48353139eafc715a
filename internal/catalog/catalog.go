// Package catalog holds the master image registry and the built-in render
// catalogs. Both ship as embedded YAML so one binary carries the complete
// asset plan; Load expands the YAML into validated tasks.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gipity/assetgen/internal/domain"
)

//go:embed masters.yaml
var mastersYAML []byte

//go:embed catalogs.yaml
var catalogsYAML []byte

type mastersFile struct {
	Masters []rawMaster `yaml:"masters"`
}

type rawMaster struct {
	Role     string `yaml:"role"`
	File     string `yaml:"file"`
	Size     string `yaml:"size"`
	Optional bool   `yaml:"optional"`
}

type catalogsFile struct {
	Catalogs []rawCatalog `yaml:"catalogs"`
}

type rawCatalog struct {
	Name    string     `yaml:"name"`
	Family  string     `yaml:"family"`
	Entries []rawEntry `yaml:"entries"`
}

// rawEntry is one catalog entry before expansion. Exactly one of the four
// expansion forms may be present: file, sizes, densities, or files.
type rawEntry struct {
	Role      string       `yaml:"role"`
	Mode      string       `yaml:"mode"`
	Margin    float64      `yaml:"margin"`
	Dir       string       `yaml:"dir"`
	File      string       `yaml:"file"`
	Size      string       `yaml:"size"`
	Pattern   string       `yaml:"pattern"`
	Sizes     []string     `yaml:"sizes"`
	Densities []rawVariant `yaml:"densities"`
	Files     []rawVariant `yaml:"files"`
}

type rawVariant struct {
	Name string `yaml:"name"`
	Size string `yaml:"size"`
}

// Set is the loaded registry and catalogs, expanded and cross-checked.
type Set struct {
	masters  []domain.MasterSpec
	byRole   map[domain.Role]domain.MasterSpec
	catalogs []domain.Catalog
}

// Load parses the embedded YAML and expands every entry into concrete
// tasks. The data is compiled in, so an error here means the binary itself
// shipped a broken plan.
func Load() (*Set, error) {
	var mf mastersFile
	if err := yaml.Unmarshal(mastersYAML, &mf); err != nil {
		return nil, fmt.Errorf("parse master registry: %w", err)
	}
	var cf catalogsFile
	if err := yaml.Unmarshal(catalogsYAML, &cf); err != nil {
		return nil, fmt.Errorf("parse catalogs: %w", err)
	}

	s := &Set{byRole: make(map[domain.Role]domain.MasterSpec, len(mf.Masters))}
	for _, rm := range mf.Masters {
		spec, err := buildMaster(rm)
		if err != nil {
			return nil, fmt.Errorf("master registry: %w", err)
		}
		if _, dup := s.byRole[spec.Role]; dup {
			return nil, fmt.Errorf("master registry: role %s listed twice", spec.Role)
		}
		s.byRole[spec.Role] = spec
		s.masters = append(s.masters, spec)
	}
	if len(s.masters) == 0 {
		return nil, errors.New("master registry is empty")
	}

	// Catalogs render concurrently, so a destination may repeat only inside
	// a single catalog, where tasks run in order and simply overwrite.
	owner := make(map[string]string)
	names := make(map[string]bool, len(cf.Catalogs))
	for _, rc := range cf.Catalogs {
		cat, err := buildCatalog(rc, s.byRole)
		if err != nil {
			return nil, err
		}
		if names[cat.Name] {
			return nil, fmt.Errorf("catalog %s listed twice", cat.Name)
		}
		names[cat.Name] = true
		for _, t := range cat.Tasks {
			if prev, ok := owner[t.Dest]; ok && prev != cat.Name {
				return nil, fmt.Errorf("destination %s appears in catalogs %s and %s", t.Dest, prev, cat.Name)
			}
			owner[t.Dest] = cat.Name
		}
		s.catalogs = append(s.catalogs, cat)
	}
	if len(s.catalogs) == 0 {
		return nil, errors.New("no catalogs defined")
	}
	return s, nil
}

func buildMaster(rm rawMaster) (domain.MasterSpec, error) {
	role, err := domain.ParseRole(rm.Role)
	if err != nil {
		return domain.MasterSpec{}, err
	}
	if rm.File == "" || strings.ContainsRune(rm.File, '/') {
		return domain.MasterSpec{}, fmt.Errorf("role %s: file must be a bare filename, got %q", role, rm.File)
	}
	dims, err := domain.ParseDims(rm.Size)
	if err != nil {
		return domain.MasterSpec{}, fmt.Errorf("role %s: %w", role, err)
	}
	return domain.MasterSpec{
		Role:     role,
		File:     rm.File,
		Expected: dims,
		Required: !rm.Optional,
	}, nil
}

func buildCatalog(rc rawCatalog, byRole map[domain.Role]domain.MasterSpec) (domain.Catalog, error) {
	if rc.Name == "" {
		return domain.Catalog{}, errors.New("catalog without a name")
	}
	if rc.Family == "" {
		return domain.Catalog{}, fmt.Errorf("catalog %s: family is required", rc.Name)
	}
	if len(rc.Entries) == 0 {
		return domain.Catalog{}, fmt.Errorf("catalog %s: no entries", rc.Name)
	}

	cat := domain.Catalog{Name: rc.Name, Family: rc.Family}
	for i, e := range rc.Entries {
		tasks, err := expandEntry(e)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("catalog %s entry %d: %w", rc.Name, i+1, err)
		}
		for _, t := range tasks {
			if err := t.Validate(); err != nil {
				return domain.Catalog{}, fmt.Errorf("catalog %s: %w", rc.Name, err)
			}
			if t.Role != "" {
				if _, ok := byRole[t.Role]; !ok {
					return domain.Catalog{}, fmt.Errorf("catalog %s: task %s wants role %s, which the registry does not define", rc.Name, t.Dest, t.Role)
				}
			}
			cat.Tasks = append(cat.Tasks, t)
		}
	}
	return cat, nil
}

func expandEntry(e rawEntry) ([]domain.Task, error) {
	mode, err := domain.ParseMode(e.Mode)
	if err != nil {
		return nil, err
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(e.Role)))

	forms := 0
	if e.File != "" {
		forms++
	}
	if len(e.Sizes) > 0 {
		forms++
	}
	if len(e.Densities) > 0 {
		forms++
	}
	if len(e.Files) > 0 {
		forms++
	}
	if forms != 1 {
		return nil, errors.New("entry must use exactly one of file, sizes, densities, or files")
	}

	task := func(dest, size, density string) (domain.Task, error) {
		spec := domain.TransformSpec{Mode: mode, Margin: e.Margin}
		if density != "" {
			dest = strings.ReplaceAll(dest, "{density}", density)
		}
		if size != "" {
			d, err := domain.ParseDims(size)
			if err != nil {
				return domain.Task{}, err
			}
			spec.Size = &d
			dest = expandTokens(dest, d)
		}
		dest = path.Join(e.Dir, dest)
		if strings.ContainsAny(dest, "{}") {
			return domain.Task{}, fmt.Errorf("destination %q has unresolved pattern tokens", dest)
		}
		return domain.Task{Role: role, Dest: dest, Spec: spec}, nil
	}

	var tasks []domain.Task
	switch {
	case e.File != "":
		t, err := task(e.File, e.Size, "")
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	case len(e.Sizes) > 0:
		if e.Pattern == "" {
			return nil, errors.New("sizes entries need a pattern")
		}
		for _, size := range e.Sizes {
			t, err := task(e.Pattern, size, "")
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	case len(e.Densities) > 0:
		if e.Pattern == "" {
			return nil, errors.New("densities entries need a pattern")
		}
		for _, v := range e.Densities {
			if v.Name == "" {
				return nil, errors.New("density without a name")
			}
			t, err := task(e.Pattern, v.Size, v.Name)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	case len(e.Files) > 0:
		for _, v := range e.Files {
			if v.Name == "" {
				return nil, errors.New("file without a name")
			}
			t, err := task(v.Name, v.Size, "")
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func expandTokens(pattern string, d domain.Dims) string {
	r := strings.NewReplacer(
		"{w}", strconv.Itoa(d.W),
		"{h}", strconv.Itoa(d.H),
	)
	return r.Replace(pattern)
}

// Masters returns the registry in declaration order.
func (s *Set) Masters() []domain.MasterSpec { return s.masters }

func (s *Set) MasterByRole(role domain.Role) (domain.MasterSpec, bool) {
	spec, ok := s.byRole[role]
	return spec, ok
}

// RequiredMasters returns the registry entries a run cannot start without.
func (s *Set) RequiredMasters() []domain.MasterSpec {
	var out []domain.MasterSpec
	for _, m := range s.masters {
		if m.Required {
			out = append(out, m)
		}
	}
	return out
}

// Catalogs returns every catalog in declaration order.
func (s *Set) Catalogs() []domain.Catalog { return s.catalogs }

func (s *Set) CatalogByName(name string) (domain.Catalog, bool) {
	for _, c := range s.catalogs {
		if c.Name == name {
			return c, true
		}
	}
	return domain.Catalog{}, false
}

// TotalTasks counts every task across every catalog.
func (s *Set) TotalTasks() int {
	n := 0
	for _, c := range s.catalogs {
		n += len(c.Tasks)
	}
	return n
}
