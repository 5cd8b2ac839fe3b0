package suitefile

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/goccy/go-yaml"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// FenceLanguage marks the code blocks of a markdown suite that hold suite YAML
const FenceLanguage = "galvanic"

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// ParseMarkdown reads a suite embedded in a markdown document.
//
// Front matter sets the suite name and requires. Every ```galvanic block is a
// YAML fragment whose fixtures and tests are appended in document order. A
// table directly under a heading naming a fixture supplies that fixture's
// values: header cells are the parameters and each row is one tuple.
func ParseMarkdown(data []byte) (*File, error) {
	file := &File{}
	body, err := frontMatter(data, file)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(body))

	var heading string
	var tables []valuesTable
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			heading = strings.TrimSpace(nodeText(node, body))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			if lang := string(node.Language(body)); lang != FenceLanguage {
				return ast.WalkSkipChildren, nil
			}
			var fragment File
			if err := yaml.Unmarshal(codeBlock(node, body), &fragment); err != nil {
				return ast.WalkStop, fmt.Errorf("galvanic block under '%s': %w", heading, err)
			}
			file.Fixtures = append(file.Fixtures, fragment.Fixtures...)
			file.Tests = append(file.Tests, fragment.Tests...)
			return ast.WalkSkipChildren, nil
		case *extast.Table:
			tables = append(tables, readTable(node, heading, body))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	for _, table := range tables {
		if err := file.applyTable(table); err != nil {
			return nil, err
		}
	}
	return finish(file)
}

func frontMatter(data []byte, file *File) ([]byte, error) {
	rest, ok := bytes.CutPrefix(data, []byte("---\n"))
	if !ok {
		return data, nil
	}
	header, body, ok := bytes.Cut(rest, []byte("\n---\n"))
	if !ok {
		return nil, fmt.Errorf("unterminated front matter")
	}
	var fm struct {
		Name     string `yaml:"name"`
		Requires string `yaml:"requires"`
	}
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return nil, fmt.Errorf("failed to parse front matter: %w", err)
	}
	file.Name, file.Requires = fm.Name, fm.Requires
	return body, nil
}

type valuesTable struct {
	fixture string
	headers []string
	rows    [][]any
}

func readTable(node *extast.Table, heading string, source []byte) valuesTable {
	table := valuesTable{fixture: heading}
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		var cells []string
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(nodeText(cell, source)))
		}
		switch child.(type) {
		case *extast.TableHeader:
			table.headers = cells
		case *extast.TableRow:
			row := make([]any, len(cells))
			for i, cell := range cells {
				row[i] = scalar(cell)
			}
			table.rows = append(table.rows, row)
		}
	}
	return table
}

// scalar decodes a table cell the way YAML would decode it, so 2 is a number
// and "2" a string.
func scalar(cell string) any {
	var v any
	if err := yaml.Unmarshal([]byte(cell), &v); err != nil {
		return cell
	}
	return v
}

func (f *File) applyTable(table valuesTable) error {
	i := slices.IndexFunc(f.Fixtures, func(s FixtureSpec) bool { return s.Name == table.fixture })
	if i < 0 {
		logger.V(3).Infof("Ignoring table under '%s', no fixture of that name", table.fixture)
		return nil
	}
	spec := &f.Fixtures[i]
	if len(spec.Params) == 0 {
		spec.Params = table.headers
	} else if !slices.Equal(spec.Params, table.headers) {
		return fmt.Errorf("fixture '%s': table columns %v do not match params %v", spec.Name, table.headers, spec.Params)
	}
	for _, row := range table.rows {
		spec.Values = append(spec.Values, row)
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); entering && ok {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func codeBlock(node *ast.FencedCodeBlock, source []byte) []byte {
	var buf bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.Bytes()
}
