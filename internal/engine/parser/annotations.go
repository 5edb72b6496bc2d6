package parser

import (
	"fmt"
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"moduledeps/internal/core/errors"
)

var typeDeclarations = []string{
	"class_declaration",
	"interface_declaration",
	"enum_declaration",
	"record_declaration",
	"annotation_type_declaration",
}

// AnnotationExtractor reads module-planning annotations from Java sources.
// Only annotations on top-level type declarations are considered. Safe for
// concurrent use.
type AnnotationExtractor struct {
	names  AnnotationNames
	pool   *ParserPool
	engine *ExtractorEngine
}

func NewAnnotationExtractor(names AnnotationNames) *AnnotationExtractor {
	e := &AnnotationExtractor{
		names: names.withDefaults(),
		pool:  NewParserPool(javaLanguage()),
	}
	handlers := make(map[string]NodeHandler, len(typeDeclarations))
	for _, kind := range typeDeclarations {
		handlers[kind] = e.handleDeclaration
	}
	e.engine = NewExtractorEngine(handlers)
	return e
}

// ExtractFile reads and extracts the annotations of the file at path.
func (e *AnnotationExtractor) ExtractFile(path string) (Annotations, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return Annotations{}, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "read java source"),
			errors.CtxPath, path,
		)
	}
	ann, err := e.Extract(source)
	if err != nil {
		return Annotations{}, errors.AddContext(err, errors.CtxPath, path)
	}
	return ann, nil
}

func (e *AnnotationExtractor) Extract(source []byte) (Annotations, error) {
	sp := e.pool.Get()
	defer e.pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return Annotations{}, errors.New(errors.CodeInternal, "java parser returned no tree")
	}
	defer tree.Close()

	var result Annotations
	ctx := &ExtractionContext{Source: source, Result: &result}
	e.engine.Walk(ctx, tree.RootNode())
	return result, nil
}

// handleDeclaration reads the modifiers of a type declaration and stops the
// walk so that nested types are not visited.
func (e *AnnotationExtractor) handleDeclaration(ctx *ExtractionContext, node *sitter.Node) bool {
	modifiers := ChildOfKind(node, "modifiers")
	if modifiers == nil {
		return true
	}
	for i := uint(0); i < modifiers.NamedChildCount(); i++ {
		ann := modifiers.NamedChild(i)
		if ann == nil || (ann.Kind() != "annotation" && ann.Kind() != "marker_annotation") {
			continue
		}
		name := simpleName(ctx.Text(ann.ChildByFieldName("name")))
		values := annotationValues(ctx, ann.ChildByFieldName("arguments"))
		if len(values) == 0 {
			continue
		}
		switch name {
		case e.names.TargetModule:
			ctx.Result.TargetModule = ModuleLabel(values[0])
		case e.names.BreakDependencyOn:
			ctx.Result.BreakDependenciesOn = append(ctx.Result.BreakDependenciesOn, values...)
		case e.names.OwnedBy:
			ctx.Result.Team = simpleName(values[0])
		}
	}
	return true
}

// annotationValues flattens an argument list into plain strings: string
// literals lose their quotes, everything else is kept as written.
func annotationValues(ctx *ExtractionContext, args *sitter.Node) []string {
	if args == nil {
		return nil
	}
	var out []string
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Kind() {
		case "element_value_pair":
			if v := n.ChildByFieldName("value"); v != nil {
				visit(v)
			}
		case "element_value_array_initializer":
			for i := uint(0); i < n.NamedChildCount(); i++ {
				visit(n.NamedChild(i))
			}
		case "string_literal":
			out = append(out, strings.Trim(ctx.Text(n), `"`))
		case "line_comment", "block_comment":
		default:
			if text := strings.TrimSpace(ctx.Text(n)); text != "" {
				out = append(out, text)
			}
		}
	}
	for i := uint(0); i < args.NamedChildCount(); i++ {
		if child := args.NamedChild(i); child != nil {
			visit(child)
		}
	}
	return out
}

// ModuleLabel maps a module constant to its build label:
// HarnessModule._870_CG_ORCHESTRATION becomes //870-cg-orchestration:module.
func ModuleLabel(constant string) string {
	name := strings.TrimLeft(simpleName(constant), "_")
	if name == "" {
		return ""
	}
	name = strings.ReplaceAll(strings.ToLower(name), "_", "-")
	return fmt.Sprintf("//%s:module", name)
}
