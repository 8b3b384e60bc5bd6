// Package build generates the flat route manifest (routes.json) and the
// fingerprinted stylesheet manifest (assets.json) from a project directory.
package build

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/routekit-dev/routekit/internal/errors"
)

// ScannedRoute represents a route module discovered by the scanner.
type ScannedRoute struct {
	// ID is the route id, e.g. "routes/dashboard.projects.$id".
	ID string

	// Name is the dot-delimited route name without the "routes/" prefix.
	Name string

	// FilePath is the source file path relative to the routes directory.
	FilePath string

	// Segment is the URL segment pattern this route contributes.
	// Empty for index routes and pathless layout routes.
	Segment string

	// Index marks an index route (file name ending in "_index").
	Index bool

	// Exported handlers and boundaries found in the file.
	HasLoader        bool
	HasAction        bool
	HasCatchBoundary bool
	HasErrorBoundary bool

	// Styles lists the stylesheet names declared in the module's
	// package-level Styles variable.
	Styles []string
}

// ParentName returns the dotted name of the route's parent, or "" for a root
// route. The parent of "dashboard.projects.$id" is "dashboard.projects".
func (r *ScannedRoute) ParentName() string {
	if i := strings.LastIndex(r.Name, "."); i >= 0 {
		return r.Name[:i]
	}
	return ""
}

// Scanner scans a routes directory for route module files.
//
// File names are dot-delimited: each dot introduces a nesting level whose
// parent is the file sharing the name prefix. The final dot part maps to the
// URL segment: "$name" becomes the parameter segment ":name", "_index" marks
// an index route with no segment, and a part starting with "__" is a
// pathless layout contributing no segment.
type Scanner struct {
	rootDir string
}

// NewScanner creates a route scanner rooted at rootDir.
func NewScanner(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// Scan reads all route module files and returns their definitions sorted by
// id, so repeated scans of the same tree produce identical manifests.
func (s *Scanner) Scan() ([]ScannedRoute, error) {
	var routes []ScannedRoute

	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		route, err := s.scanFile(path)
		if err != nil {
			return errors.Newf(errors.CategoryBuild, "scanning %s", path).Wrap(err)
		}
		routes = append(routes, *route)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(routes, func(i, j int) bool { return routes[i].ID < routes[j].ID })
	return routes, nil
}

// scanFile parses a route module file and extracts its route definition.
func (s *Scanner) scanFile(path string) (*ScannedRoute, error) {
	rel, err := filepath.Rel(s.rootDir, path)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)

	name := strings.TrimSuffix(rel, ".go")
	// Subdirectories nest the same way dots do.
	name = strings.ReplaceAll(name, "/", ".")

	route := &ScannedRoute{
		ID:       "routes/" + name,
		Name:     name,
		FilePath: rel,
		Segment:  segmentFor(lastPart(name)),
		Index:    lastPart(name) == "_index",
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Name == nil || d.Recv != nil {
				continue
			}
			switch d.Name.Name {
			case "Loader":
				route.HasLoader = true
			case "Action":
				route.HasAction = true
			case "CatchBoundary":
				route.HasCatchBoundary = true
			case "ErrorBoundary":
				route.HasErrorBoundary = true
			}

		case *ast.GenDecl:
			if d.Tok != token.VAR {
				continue
			}
			for _, spec := range d.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for i, ident := range vs.Names {
					if ident.Name == "Styles" && i < len(vs.Values) {
						route.Styles = stringSliceLiteral(vs.Values[i])
					}
				}
			}
		}
	}

	return route, nil
}

func lastPart(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// segmentFor maps a file name part to its URL segment pattern.
func segmentFor(part string) string {
	switch {
	case part == "_index":
		return ""
	case strings.HasPrefix(part, "__"):
		// Pathless layout.
		return ""
	case strings.HasPrefix(part, "$"):
		return ":" + part[1:]
	default:
		return part
	}
}

// stringSliceLiteral extracts the elements of a []string composite literal.
// Anything more dynamic than string constants is ignored.
func stringSliceLiteral(expr ast.Expr) []string {
	lit, ok := expr.(*ast.CompositeLit)
	if !ok {
		return nil
	}
	var out []string
	for _, elt := range lit.Elts {
		basic, ok := elt.(*ast.BasicLit)
		if !ok || basic.Kind != token.STRING {
			continue
		}
		out = append(out, strings.Trim(basic.Value, "`\""))
	}
	return out
}
