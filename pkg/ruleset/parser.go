package ruleset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxFileSize is the default limit for a single rule-set file.
const DefaultMaxFileSize = 10 * 1024 * 1024

// notesSuffixes replace the rule-set extension to name its notes file. The
// first one present wins.
var notesSuffixes = []string{".notes.html", ".notes.md"}

// Parser parses rule-set YAML files into Documents.
type Parser struct {
	maxFileSize  int64
	contextLines int
	strict       bool
}

// NewParser creates a parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		maxFileSize:  DefaultMaxFileSize,
		contextLines: 2,
	}
}

// WithMaxFileSize sets the maximum file size in bytes.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithStrictMode rejects unknown condition fields instead of ignoring them.
func (p *Parser) WithStrictMode(strict bool) *Parser {
	p.strict = strict
	return p
}

// ParseFile parses the rule-set file at path and attaches the game notes
// found beside it. path must have a .yaml or .yml extension.
func (p *Parser) ParseFile(path string) (*Document, error) {
	if !IsRuleSetFile(path) {
		return nil, &Error{
			Type:       ErrorTypeIO,
			Message:    "Not a rule-set file",
			Location:   Location{File: path},
			Suggestion: "Rule-set files end in .yaml or .yml",
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("Failed to access file: %v", err),
			Location: Location{File: path},
			Err:      err,
		}
	}
	if info.Size() > p.maxFileSize {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("File size %d exceeds maximum %d bytes", info.Size(), p.maxFileSize),
			Location: Location{File: path},
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("Failed to read file: %v", err),
			Location: Location{File: path},
			Err:      err,
		}
	}

	doc, err := p.ParseBytes(data, path)
	if err != nil {
		return nil, err
	}
	if doc.Notes, err = p.LoadNotes(path); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadNotes returns the game notes kept beside the rule-set file at path:
// "<base>.notes.html", else "<base>.notes.md". A missing notes file yields an
// empty string.
func (p *Parser) LoadNotes(path string) (string, error) {
	for _, notesPath := range NotesFiles(path) {
		info, err := os.Stat(notesPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err == nil && info.Size() > p.maxFileSize {
			return "", &Error{
				Type:     ErrorTypeIO,
				Message:  fmt.Sprintf("Notes size %d exceeds maximum %d bytes", info.Size(), p.maxFileSize),
				Location: Location{File: notesPath},
			}
		}
		var data []byte
		if err == nil {
			data, err = os.ReadFile(notesPath)
		}
		if err != nil {
			return "", &Error{
				Type:     ErrorTypeIO,
				Message:  fmt.Sprintf("Failed to read notes: %v", err),
				Location: Location{File: notesPath},
				Err:      err,
			}
		}
		return string(data), nil
	}
	return "", nil
}

// NotesFiles returns the notes paths looked up for the rule-set file at path,
// in lookup order. It returns nil for paths that are not rule-set files.
func NotesFiles(path string) []string {
	if !IsRuleSetFile(path) {
		return nil
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	paths := make([]string, len(notesSuffixes))
	for i, suffix := range notesSuffixes {
		paths[i] = base + suffix
	}
	return paths
}

// ParseBytes parses rule-set YAML from memory. sourcePath is used for locations.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*Document, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("Data size %d exceeds maximum %d bytes", len(data), p.maxFileSize),
			Location: Location{File: sourcePath},
		}
	}

	yd, err := parseYAMLBytes(data)
	if err != nil {
		return nil, &Error{
			Type:       ErrorTypeSyntax,
			Message:    fmt.Sprintf("YAML parsing failed: %v", err),
			Location:   Location{File: sourcePath, Line: 1, Column: 1},
			Suggestion: "Check YAML syntax (indentation, colons, quotes)",
			Err:        err,
		}
	}

	doc, errs := p.buildDocument(yd, sourcePath)
	if errs.HasErrors() {
		for _, e := range errs.Errors {
			e.Context = extractContext(data, e.Location, p.contextLines)
		}
		return nil, errs
	}

	return doc, nil
}

// ParseDir parses every .yaml and .yml file directly under dir in name order.
// Errors from all files are reported together.
func (p *Parser) ParseDir(dir string) ([]*Document, error) {
	paths, err := ListFiles(dir)
	if err != nil {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("Failed to list directory: %v", err),
			Location: Location{File: dir},
			Err:      err,
		}
	}
	return p.ParseFiles(paths)
}

// ParseFiles parses each path and collects every error.
func (p *Parser) ParseFiles(paths []string) ([]*Document, error) {
	errs := NewErrorList()
	docs := make([]*Document, 0, len(paths))

	for _, path := range paths {
		doc, err := p.ParseFile(path)
		if err != nil {
			collect(errs, err)
			continue
		}
		docs = append(docs, doc)
	}

	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListFiles returns the rule-set files directly under dir, sorted by name.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !IsRuleSetFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// IsRuleSetFile reports whether name has a rule-set file extension.
func IsRuleSetFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// IsNotesFile reports whether name is a game notes file.
func IsNotesFile(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range notesSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// collect appends err to errs, flattening lists.
func collect(errs *ErrorList, err error) {
	switch e := err.(type) {
	case *ErrorList:
		errs.Merge(e)
	case *Error:
		errs.Add(e)
	default:
		errs.Add(&Error{Type: ErrorTypeIO, Message: err.Error(), Err: err})
	}
}

// buildDocument converts the intermediate structure and checks required fields.
func (p *Parser) buildDocument(yd *yamlDocument, sourcePath string) (*Document, *ErrorList) {
	errs := NewErrorList()
	doc := &Document{
		Name:        yd.Name,
		Version:     yd.Version,
		Description: yd.Description,
		SourceFile:  sourcePath,
		Location:    Location{File: sourcePath, Line: 1, Column: 1},
	}

	if doc.Name == "" {
		errs.Add(&Error{
			Type:       ErrorTypeStructural,
			Message:    "Rule set name is required",
			Location:   doc.Location,
			Suggestion: "Add 'name: <rule-set-name>' at the top of the file",
		})
	}

	for i := range yd.Players {
		yp := &yd.Players[i]
		loc := nodeLocation(sourcePath, yp.node)
		if yp.Name == "" {
			errs.AddError(ErrorTypeStructural, fmt.Sprintf("Player at index %d has no name", i), loc)
			continue
		}

		player := &PlayerSpec{Name: yp.Name, Location: loc}
		for j := range yp.Conditions {
			spec, err := p.buildCondition(&yp.Conditions[j], sourcePath, yp.Name, j)
			if err != nil {
				errs.Add(err)
				continue
			}
			player.Conditions = append(player.Conditions, spec)
		}
		doc.Players = append(doc.Players, player)
	}

	for i := range yd.Scenarios {
		ys := &yd.Scenarios[i]
		loc := nodeLocation(sourcePath, ys.node)
		if ys.Name == "" {
			errs.AddError(ErrorTypeStructural, fmt.Sprintf("Scenario at index %d has no name", i), loc)
			continue
		}
		if len(ys.Expect) == 0 {
			errs.Add(&Error{
				Type:       ErrorTypeStructural,
				Message:    fmt.Sprintf("Scenario %q has no expectations", ys.Name),
				Location:   loc,
				Suggestion: "Add 'expect: { <condition>: true }'",
			})
			continue
		}
		doc.Scenarios = append(doc.Scenarios, &Scenario{
			Name:        ys.Name,
			Description: ys.Description,
			Facts:       ys.Facts,
			Expect:      ys.Expect,
			Location:    loc,
		})
	}

	return doc, errs
}

func (p *Parser) buildCondition(yc *yamlCondition, sourcePath, player string, index int) (*ConditionSpec, *Error) {
	loc := nodeLocation(sourcePath, yc.node)

	if yc.Name == "" {
		return nil, &Error{
			Type:     ErrorTypeStructural,
			Message:  fmt.Sprintf("Condition at index %d of player %q has no name", index, player),
			Location: loc,
		}
	}

	if p.strict {
		for _, key := range yc.keys {
			if !contains(knownConditionFields, key) {
				return nil, &Error{
					Type:       ErrorTypeStructural,
					Message:    fmt.Sprintf("Condition %q has unknown field %q", yc.Name, key),
					Location:   loc,
					Suggestion: SuggestField(key, knownConditionFields),
				}
			}
		}
	}

	policy := yc.Type
	if policy == "" {
		policy = yc.ConditionType
	} else if yc.ConditionType != "" && yc.ConditionType != yc.Type {
		return nil, &Error{
			Type:     ErrorTypeStructural,
			Message:  fmt.Sprintf("Condition %q sets both type %q and condition_type %q", yc.Name, yc.Type, yc.ConditionType),
			Location: loc,
		}
	}

	refs, err := yc.refs()
	if err != nil {
		return nil, &Error{
			Type:     ErrorTypeStructural,
			Message:  fmt.Sprintf("Condition %q: %v", yc.Name, err),
			Location: loc,
		}
	}

	return &ConditionSpec{
		Name:     yc.Name,
		Type:     policy,
		Invert:   yc.Invert,
		Chance:   yc.Chance,
		Refs:     refs,
		Location: loc,
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
