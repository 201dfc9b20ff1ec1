// Command aggregate_write_audit reports, per service method, how many writes
// go straight to a repo and how many go through an aggregate.
//
//	go run ./scripts [repo-root]
package main

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type methodStats struct {
	Struct          string   `json:"struct"`
	Method          string   `json:"method"`
	File            string   `json:"file"`
	Line            int      `json:"line"`
	RepoWrites      int      `json:"repo_writes"`
	ReposWritten    []string `json:"repos_written"`
	AggregateWrites int      `json:"aggregate_writes"`
	AggregateOps    []string `json:"aggregate_ops"`
}

type auditReport struct {
	RepoWriteCallsites      int           `json:"repo_write_callsites"`
	AggregateWriteCallsites int           `json:"aggregate_write_callsites"`
	MultiRepoMethods        int           `json:"methods_writing_2plus_repos"`
	DirectWriteMethods      []methodStats `json:"direct_write_methods"`
	Methods                 []methodStats `json:"methods"`
}

// fieldKinds maps a struct field name to "repo" or "aggregate".
type fieldKinds map[string]string

var repoWriteMethods = map[string]bool{
	"Create":        true,
	"UpdateFields":  true,
	"ClearWinners":  true,
	"LockByID":      true,
	"Delete":        true,
	"DeleteByID":    true,
	"UpsertByShot":  true,
	"MergeMetadata": true,
}

var aggregateWriteMethods = map[string]bool{
	"MarkWinner":    true,
	"RecordShot":    true,
	"Validate":      true,
	"Transition":    true,
	"MergeMetadata": true,
	"Rollup":        true,
	"Promote":       true,
}

func main() {
	root := "."
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	dir := filepath.Join(root, "internal", "services")
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dir, func(fi os.FileInfo) bool {
		return strings.HasSuffix(fi.Name(), ".go") && !strings.HasSuffix(fi.Name(), "_test.go")
	}, 0)
	if err != nil {
		exitf("parse dir: %v", err)
	}
	pkg, ok := pkgs["services"]
	if !ok {
		exitf("services package not found in %s", dir)
	}

	kinds := fieldKinds{}
	for _, f := range pkg.Files {
		collectFieldKinds(f, kinds)
	}
	var methods []methodStats
	for path, f := range pkg.Files {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		methods = append(methods, collectMethods(fset, f, filepath.ToSlash(rel), kinds)...)
	}

	out, err := json.MarshalIndent(buildReport(methods), "", "  ")
	if err != nil {
		exitf("marshal report: %v", err)
	}
	fmt.Println(string(out))
}

func collectFieldKinds(file *ast.File, out fieldKinds) {
	ast.Inspect(file, func(n ast.Node) bool {
		st, ok := n.(*ast.StructType)
		if !ok || st.Fields == nil {
			return true
		}
		for _, field := range st.Fields.List {
			sel, ok := field.Type.(*ast.SelectorExpr)
			if !ok || len(field.Names) == 0 {
				continue
			}
			pkgIdent, ok := sel.X.(*ast.Ident)
			if !ok {
				continue
			}
			kind := ""
			switch {
			case pkgIdent.Name == "repos" && strings.HasSuffix(sel.Sel.Name, "Repo"):
				kind = "repo"
			case pkgIdent.Name == "domainagg" && strings.HasSuffix(sel.Sel.Name, "Aggregate"):
				kind = "aggregate"
			}
			if kind != "" {
				for _, name := range field.Names {
					out[name.Name] = kind
				}
			}
		}
		return true
	})
}

// fieldOf returns the field a call is made on, for both r.Field.M() and r.deps.Field.M().
func fieldOf(expr ast.Expr, recv string) string {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return ""
	}
	switch x := sel.X.(type) {
	case *ast.Ident:
		if x.Name == recv {
			return sel.Sel.Name
		}
	case *ast.SelectorExpr:
		if id, ok := x.X.(*ast.Ident); ok && id.Name == recv {
			return sel.Sel.Name
		}
	}
	return ""
}

func collectMethods(fset *token.FileSet, file *ast.File, rel string, kinds fieldKinds) []methodStats {
	var out []methodStats
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || fd.Body == nil || len(fd.Recv.List) == 0 {
			continue
		}
		recvName, recvType := recvInfo(fd.Recv.List[0])
		if recvName == "" {
			continue
		}
		repos := map[string]bool{}
		aggOps := map[string]bool{}
		stats := methodStats{Struct: recvType, Method: fd.Name.Name, File: rel, Line: fset.Position(fd.Pos()).Line}

		ast.Inspect(fd.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			fnSel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			field := fieldOf(fnSel.X, recvName)
			method := fnSel.Sel.Name
			switch kinds[field] {
			case "repo":
				if repoWriteMethods[method] {
					stats.RepoWrites++
					repos[field] = true
				}
			case "aggregate":
				if aggregateWriteMethods[method] {
					stats.AggregateWrites++
					aggOps[method] = true
				}
			}
			return true
		})
		stats.ReposWritten = sortedKeys(repos)
		stats.AggregateOps = sortedKeys(aggOps)
		if stats.RepoWrites > 0 || stats.AggregateWrites > 0 {
			out = append(out, stats)
		}
	}
	return out
}

func buildReport(methods []methodStats) auditReport {
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].File == methods[j].File {
			return methods[i].Line < methods[j].Line
		}
		return methods[i].File < methods[j].File
	})
	report := auditReport{Methods: methods}
	for _, m := range methods {
		report.RepoWriteCallsites += m.RepoWrites
		report.AggregateWriteCallsites += m.AggregateWrites
		if len(m.ReposWritten) >= 2 {
			report.MultiRepoMethods++
		}
		if m.RepoWrites > 0 {
			report.DirectWriteMethods = append(report.DirectWriteMethods, m)
		}
	}
	return report
}

func recvInfo(field *ast.Field) (string, string) {
	if field == nil || len(field.Names) == 0 {
		return "", ""
	}
	switch t := field.Type.(type) {
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return field.Names[0].Name, id.Name
		}
	case *ast.Ident:
		return field.Names[0].Name, t.Name
	}
	return "", ""
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
