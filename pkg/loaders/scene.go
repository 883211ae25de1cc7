package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

// ErrSyntax is wrapped by every error reported while parsing a scene file
var ErrSyntax = errors.New("scene syntax error")

// Statement represents a parsed scene statement
type Statement struct {
	Type       string           // Statement type (Camera, Shape, Attribute, etc.)
	Args       []string         // Positional arguments; quotes removed, arrays flattened
	Parameters map[string]Param // Named, typed parameters
	Line       int              // Line the statement starts on
}

// Param represents a parameter with type and value(s)
type Param struct {
	Type   string   // Parameter type (float, rgb, point3, string, ...)
	Values []string // Parameter values as strings
}

// NodeDescription is a Node or Shape block
type NodeDescription struct {
	Kind       string      // Set operation for nodes, primitive kind for shapes
	IsShape    bool        // Shapes are leaves
	Transforms []Statement // Translate/Rotate/Scale/Transform in file order
	Attributes []Statement
	Children   []*NodeDescription
	Line       int
}

// SceneDescription contains everything parsed from a scene file
type SceneDescription struct {
	Camera     *Statement
	Film       *Statement
	Background *core.Vec3
	Lights     []Statement
	Root       *NodeDescription
}

// SceneParser encapsulates the state and logic for parsing scene files
type SceneParser struct {
	desc           *SceneDescription
	stack          []*NodeDescription
	statementLines []string
	statementStart int
	line           int
}

// NewSceneParser creates a new scene parser instance
func NewSceneParser() *SceneParser {
	return &SceneParser{desc: &SceneDescription{}}
}

// ParseScene parses scene content from an io.Reader
func ParseScene(reader io.Reader) (*SceneDescription, error) {
	parser := NewSceneParser()

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		if err := parser.processLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	if err := parser.finalize(); err != nil {
		return nil, err
	}
	return parser.desc, nil
}

// LoadScene loads and parses a scene file
func LoadScene(filename string) (*SceneDescription, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	desc, err := ParseScene(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filename), err)
	}
	core.Logger().Debug("parsed scene file", "file", filename, "lights", len(desc.Lights))
	return desc, nil
}

func (p *SceneParser) syntaxError(line int, format string, args ...any) error {
	return fmt.Errorf("line %d: %w: %s", line, ErrSyntax, fmt.Sprintf(format, args...))
}

// processLine processes a single line of input
func (p *SceneParser) processLine(raw string) error {
	p.line++
	line := strings.TrimSpace(raw)

	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	if line == "End" {
		if err := p.flush(); err != nil {
			return err
		}
		if len(p.stack) == 0 {
			return p.syntaxError(p.line, "End without matching Node or Shape")
		}
		p.stack = p.stack[:len(p.stack)-1]
		return nil
	}

	if isStatementStart(line) {
		if err := p.flush(); err != nil {
			return err
		}
		p.statementLines = []string{line}
		p.statementStart = p.line
		return nil
	}

	if len(p.statementLines) == 0 {
		return p.syntaxError(p.line, "unexpected continuation line: %s", line)
	}
	p.statementLines = append(p.statementLines, line)
	return nil
}

// flush parses and routes the accumulated statement lines
func (p *SceneParser) flush() error {
	if len(p.statementLines) == 0 {
		return nil
	}
	full := strings.Join(p.statementLines, " ")
	p.statementLines = nil

	stmt, err := parseStatement(full)
	if err != nil {
		return p.syntaxError(p.statementStart, "%v", err)
	}
	stmt.Line = p.statementStart
	return p.routeStatement(stmt)
}

// finalize processes any remaining statement and checks block balance
func (p *SceneParser) finalize() error {
	if err := p.flush(); err != nil {
		return err
	}
	if len(p.stack) > 0 {
		open := p.stack[len(p.stack)-1]
		return p.syntaxError(open.Line, "%s block is never closed", open.Kind)
	}
	if p.desc.Root == nil {
		return p.syntaxError(p.line, "scene has no Node or Shape")
	}
	return nil
}

func (p *SceneParser) current() *NodeDescription {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// routeStatement routes a parsed statement to the right part of the description
func (p *SceneParser) routeStatement(stmt *Statement) error {
	node := p.current()

	switch stmt.Type {
	case "Camera", "Film", "Background", "LightSource":
		if node != nil {
			return p.syntaxError(stmt.Line, "%s is not allowed inside a block", stmt.Type)
		}
		return p.routeGlobal(stmt)

	case "Node", "Shape":
		if len(stmt.Args) != 1 {
			return p.syntaxError(stmt.Line, "%s requires exactly one kind, got %d arguments", stmt.Type, len(stmt.Args))
		}
		child := &NodeDescription{
			Kind:    stmt.Args[0],
			IsShape: stmt.Type == "Shape",
			Line:    stmt.Line,
		}
		switch {
		case node == nil && p.desc.Root != nil:
			return p.syntaxError(stmt.Line, "scene already has a root node (line %d)", p.desc.Root.Line)
		case node == nil:
			p.desc.Root = child
		case node.IsShape:
			return p.syntaxError(stmt.Line, "shape %q cannot have children", node.Kind)
		default:
			node.Children = append(node.Children, child)
		}
		p.stack = append(p.stack, child)
		return nil

	case "Translate", "Rotate", "Scale", "Transform":
		if node == nil {
			return p.syntaxError(stmt.Line, "%s must appear inside a Node or Shape", stmt.Type)
		}
		if err := checkTransformArity(stmt); err != nil {
			return p.syntaxError(stmt.Line, "%v", err)
		}
		node.Transforms = append(node.Transforms, *stmt)
		return nil

	case "Attribute":
		if node == nil {
			return p.syntaxError(stmt.Line, "Attribute must appear inside a Node or Shape")
		}
		if len(stmt.Args) == 0 {
			return p.syntaxError(stmt.Line, "Attribute requires a name")
		}
		node.Attributes = append(node.Attributes, *stmt)
		return nil
	}

	return p.syntaxError(stmt.Line, "unknown statement %q", stmt.Type)
}

func (p *SceneParser) routeGlobal(stmt *Statement) error {
	switch stmt.Type {
	case "Camera":
		p.desc.Camera = stmt
	case "Film":
		p.desc.Film = stmt
	case "Background":
		values, err := stmt.Floats()
		if err != nil || len(values) != 3 {
			return p.syntaxError(stmt.Line, "Background requires 3 numbers")
		}
		bg := core.NewVec3(values[0], values[1], values[2])
		p.desc.Background = &bg
	case "LightSource":
		if len(stmt.Args) != 1 {
			return p.syntaxError(stmt.Line, "LightSource requires exactly one type")
		}
		p.desc.Lights = append(p.desc.Lights, *stmt)
	}
	return nil
}

// checkTransformArity validates the number and type of transform arguments
func checkTransformArity(stmt *Statement) error {
	values, err := stmt.Floats()
	if err != nil {
		return err
	}
	want := map[string][]int{
		"Translate": {3},
		"Rotate":    {4},
		"Scale":     {1, 3},
		"Transform": {16},
	}[stmt.Type]
	for _, n := range want {
		if len(values) == n {
			return nil
		}
	}
	return fmt.Errorf("%s expects %v numbers, got %d", stmt.Type, want, len(values))
}

// validateFilePath validates a file path for security issues
func validateFilePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	// Check for null bytes (could indicate path manipulation)
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}

	cleanPath := filepath.ToSlash(filepath.Clean(filename))

	// Only allow files in scenes/ directory or temp directory (for tests)
	if !strings.HasPrefix(cleanPath, "scenes/") &&
		!strings.HasPrefix(cleanPath, filepath.ToSlash(os.TempDir())) &&
		!strings.Contains(cleanPath, "scenes/") {
		return fmt.Errorf("file path must be in scenes/ directory")
	}

	// Directory traversal is only tolerated if the result still lands in scenes/
	if strings.Contains(cleanPath, "..") && !strings.Contains(cleanPath, "scenes/") {
		return fmt.Errorf("invalid file path: directory traversal not allowed")
	}

	if !strings.HasSuffix(strings.ToLower(cleanPath), ".scene") {
		return fmt.Errorf("invalid file type: only .scene files are allowed")
	}

	if len(cleanPath) > 512 {
		return fmt.Errorf("file path too long: maximum 512 characters allowed")
	}

	return nil
}

// tokenizeLine tokenizes a statement respecting quoted strings and brackets
func tokenizeLine(line string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	inBrackets := false

	for _, char := range line {
		switch char {
		case '"':
			if !inBrackets {
				current.WriteRune(char)
				if inQuotes {
					// End of quoted string
					tokens = append(tokens, current.String())
					current.Reset()
					inQuotes = false
				} else {
					inQuotes = true
				}
			} else {
				current.WriteRune(char)
			}
		case '[':
			if !inQuotes {
				if current.Len() > 0 {
					tokens = append(tokens, current.String())
					current.Reset()
				}
				current.WriteRune(char)
				inBrackets = true
			} else {
				current.WriteRune(char)
			}
		case ']':
			if !inQuotes && inBrackets {
				current.WriteRune(char)
				tokens = append(tokens, current.String())
				current.Reset()
				inBrackets = false
			} else {
				current.WriteRune(char)
			}
		case ' ', '\t':
			if inQuotes || inBrackets {
				current.WriteRune(char)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func isQuoted(token string) bool {
	return len(token) >= 2 && strings.HasPrefix(token, "\"") && strings.HasSuffix(token, "\"")
}

func isArray(token string) bool {
	return strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]")
}

var paramTypes = map[string]bool{
	"float": true, "integer": true, "bool": true, "string": true,
	"rgb": true, "point3": true, "vector3": true,
}

// isParamDef reports whether token looks like "type name" with a known type
func isParamDef(token string) bool {
	if !isQuoted(token) {
		return false
	}
	fields := strings.Fields(strings.Trim(token, "\""))
	return len(fields) == 2 && paramTypes[fields[0]]
}

// expandValue turns a value token into its individual values
func expandValue(token string) []string {
	switch {
	case isArray(token):
		inner := strings.Trim(token, "[] ")
		var values []string
		for _, v := range tokenizeLine(inner) {
			values = append(values, strings.Trim(v, "\""))
		}
		return values
	case isQuoted(token):
		return []string{strings.Trim(token, "\"")}
	}
	return []string{token}
}

// parseStatement parses a single statement: Type args... "type name" value ...
func parseStatement(line string) (*Statement, error) {
	parts := tokenizeLine(line)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty statement")
	}

	stmt := &Statement{
		Type:       parts[0],
		Parameters: make(map[string]Param),
	}

	i := 1
	for i < len(parts) && !isParamDef(parts[i]) {
		stmt.Args = append(stmt.Args, expandValue(parts[i])...)
		i++
	}

	for i < len(parts) {
		if !isParamDef(parts[i]) {
			return nil, fmt.Errorf("expected a \"type name\" parameter, got %s", parts[i])
		}
		fields := strings.Fields(strings.Trim(parts[i], "\""))
		i++
		if i >= len(parts) {
			return nil, fmt.Errorf("parameter %q has no value", fields[1])
		}
		stmt.Parameters[fields[1]] = Param{Type: fields[0], Values: expandValue(parts[i])}
		i++
	}

	return stmt, nil
}

// isStatementStart determines if a line starts a new statement
func isStatementStart(line string) bool {
	statementTypes := []string{
		"Camera", "Film", "Background", "LightSource",
		"Node", "Shape", "Attribute",
		"Translate", "Rotate", "Scale", "Transform",
	}

	for _, stmt := range statementTypes {
		if strings.HasPrefix(line, stmt+" ") || strings.HasPrefix(line, stmt+"\t") || line == stmt {
			return true
		}
	}
	return false
}

// Subtype returns the first positional argument, if any
func (stmt *Statement) Subtype() string {
	if len(stmt.Args) == 0 {
		return ""
	}
	return stmt.Args[0]
}

// Floats parses every positional argument as a number
func (stmt *Statement) Floats() ([]float64, error) {
	return ParseFloats(stmt.Args)
}

// ParseFloats parses every value as a float64
func ParseFloats(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", v)
		}
		out[i] = f
	}
	return out, nil
}

// GetFloatParam extracts a float parameter
func (stmt *Statement) GetFloatParam(name string) (float64, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return 0, false
	}
	val, err := strconv.ParseFloat(param.Values[0], 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// GetVec3Param extracts a three-component parameter (rgb, point3, vector3)
func (stmt *Statement) GetVec3Param(name string) (core.Vec3, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) != 3 {
		return core.Vec3{}, false
	}
	values, err := ParseFloats(param.Values)
	if err != nil {
		return core.Vec3{}, false
	}
	return core.NewVec3(values[0], values[1], values[2]), true
}

// GetStringParam extracts a string parameter
func (stmt *Statement) GetStringParam(name string) (string, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return "", false
	}
	return param.Values[0], true
}
