package graph

// NotApplicable is the location of classes synthesized for external or
// generated dependencies that have no source file.
const NotApplicable = "n/a"

const unknownTeam = "UNK"

// Team is a class ownership tag. The zero value is the unknown team, which
// never compares equal to a named team.
type Team struct {
	Name  string
	Known bool
}

func KnownTeam(name string) Team {
	if name == "" {
		return Team{}
	}
	return Team{Name: name, Known: true}
}

// String renders the team for reports; unknown teams print as UNK.
func (t Team) String() string {
	if !t.Known {
		return unknownTeam
	}
	return t.Name
}

// Class is a single compiled unit. Name is the identity key.
type Class struct {
	Name string
	// Location is the source path relative to the workspace root, or
	// NotApplicable.
	Location string
	// RelativeLocation is Location relative to the owning module directory.
	RelativeLocation    string
	Dependencies        map[string]bool
	BreakDependenciesOn map[string]bool
	// TargetModule is empty when the class declares no intent to move.
	TargetModule string
	Team         Team
}

func (c *Class) HasTarget() bool {
	return c.TargetModule != ""
}

func (c *Class) IsExternal() bool {
	return c.Location == NotApplicable
}

// Module is a build target owning a set of classes.
type Module struct {
	Name string
	// Index orders modules by layer. A module may only depend on modules
	// with a strictly greater index.
	Index        float64
	Directory    string
	Srcs         map[string]*Class
	Dependencies map[string]bool
	Deprecated   bool
}

func (m *Module) DependsOn(name string) bool {
	return m.Dependencies[name]
}

// Set builds a membership map from names.
func Set(names ...string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}
