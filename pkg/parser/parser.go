package parser

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// GraphInput holds the parsed columns a network is constructed from.
type GraphInput struct {
	IDs      []string
	Types    []string
	EdgesA   []string
	EdgesB   []string
	AllowedA []string
	AllowedB []string
}

// TypeNames returns the distinct type names, sorted.
func (g *GraphInput) TypeNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range g.Types {
		if !seen[t] {
			seen[t] = true
			names = append(names, t)
		}
	}
	sort.Strings(names)
	return names
}

// ParseNodeFile reads a node list with one "id<whitespace>type" entry per
// line. Lines starting with '#' and blank lines are skipped.
func ParseNodeFile(path string) ([]string, []string, error) {
	var ids, types []string
	err := scanLines(path, func(lineNum int, fields []string) error {
		if len(fields) != 2 {
			return fmt.Errorf("line %d: expected 'id type', got %d fields", lineNum, len(fields))
		}
		ids = append(ids, fields[0])
		types = append(types, fields[1])
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ids, types, nil
}

// ParseEdgeFile reads an edge list with one "from<whitespace>to" pair per
// line.
func ParseEdgeFile(path string) ([]string, []string, error) {
	var from, to []string
	err := scanLines(path, func(lineNum int, fields []string) error {
		if len(fields) != 2 {
			return fmt.Errorf("line %d: expected 'from to', got %d fields", lineNum, len(fields))
		}
		from = append(from, fields[0])
		to = append(to, fields[1])
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// ParseAllowedPairsFile reads the permitted edge-type relation, one
// "type_a<whitespace>type_b" pair per line.
func ParseAllowedPairsFile(path string) ([]string, []string, error) {
	return ParseEdgeFile(path)
}

// ParseGraphInput loads a node file, an edge file, and an optional allowed
// pairs file (empty path to skip) into one GraphInput.
func ParseGraphInput(nodePath, edgePath, allowedPath string) (*GraphInput, error) {
	ids, types, err := ParseNodeFile(nodePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse node file: %w", err)
	}

	edgesA, edgesB, err := ParseEdgeFile(edgePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse edge file: %w", err)
	}

	input := &GraphInput{
		IDs:    ids,
		Types:  types,
		EdgesA: edgesA,
		EdgesB: edgesB,
	}

	if allowedPath != "" {
		allowedA, allowedB, err := ParseAllowedPairsFile(allowedPath)
		if err != nil {
			return nil, fmt.Errorf("failed to parse allowed pairs file: %w", err)
		}
		input.AllowedA = allowedA
		input.AllowedB = allowedB
	}

	return input, nil
}

// ParseNodeLines and ParseEdgeLines parse in-memory content of the same
// formats, used by callers that receive uploads instead of files.
func ParseNodeLines(lines []string) ([]string, []string, error) {
	var ids, types []string
	err := scanFields(lines, func(lineNum int, fields []string) error {
		if len(fields) != 2 {
			return fmt.Errorf("line %d: expected 'id type', got %d fields", lineNum, len(fields))
		}
		ids = append(ids, fields[0])
		types = append(types, fields[1])
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ids, types, nil
}

func ParseEdgeLines(lines []string) ([]string, []string, error) {
	var from, to []string
	err := scanFields(lines, func(lineNum int, fields []string) error {
		if len(fields) != 2 {
			return fmt.Errorf("line %d: expected 'from to', got %d fields", lineNum, len(fields))
		}
		from = append(from, fields[0])
		to = append(to, fields[1])
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func scanFields(lines []string, handle func(lineNum int, fields []string) error) error {
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := handle(i+1, strings.Fields(line)); err != nil {
			return err
		}
	}
	return nil
}

func scanLines(path string, handle func(lineNum int, fields []string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := handle(lineNum, strings.Fields(line)); err != nil {
			return err
		}
	}
	return scanner.Err()
}
