package parser

// Annotations are the module-planning annotations found on the top-level
// type declarations of one Java source file.
type Annotations struct {
	// TargetModule is a module label such as //870-cg-orchestration:module,
	// or empty when no target is declared.
	TargetModule        string
	BreakDependenciesOn []string
	// Team is empty when no owner is declared.
	Team string
}

// AnnotationNames are the simple names of the annotations to read.
type AnnotationNames struct {
	TargetModule      string
	BreakDependencyOn string
	OwnedBy           string
}

func DefaultAnnotationNames() AnnotationNames {
	return AnnotationNames{
		TargetModule:      "TargetModule",
		BreakDependencyOn: "BreakDependencyOn",
		OwnedBy:           "OwnedBy",
	}
}

func (n AnnotationNames) withDefaults() AnnotationNames {
	def := DefaultAnnotationNames()
	if n.TargetModule == "" {
		n.TargetModule = def.TargetModule
	}
	if n.BreakDependencyOn == "" {
		n.BreakDependencyOn = def.BreakDependencyOn
	}
	if n.OwnedBy == "" {
		n.OwnedBy = def.OwnedBy
	}
	return n
}
