// Package assets analyzes data-asset classes (ScriptableObject subclasses):
// their editor menu entries, serialized fields and references to engine asset types.
package assets

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ritzau/unity-analyzer/pkg/component"
	"github.com/ritzau/unity-analyzer/pkg/config"
	"github.com/ritzau/unity-analyzer/pkg/model"
)

// Engine asset types a field can reference
var assetTypes = map[string]bool{
	"GameObject":                true,
	"AudioClip":                 true,
	"Sprite":                    true,
	"Texture2D":                 true,
	"Material":                  true,
	"Mesh":                      true,
	"Animation":                 true,
	"AnimationClip":             true,
	"RuntimeAnimatorController": true,
	"ParticleSystem":            true,
	"Font":                      true,
	"Shader":                    true,
}

var (
	fileNamePattern = regexp.MustCompile(`fileName\s*=\s*"([^"]*)"`)
	menuNamePattern = regexp.MustCompile(`menuName\s*=\s*"([^"]*)"`)
	orderPattern    = regexp.MustCompile(`order\s*=\s*(-?\d+)`)
	headerPattern   = regexp.MustCompile(`^Header\s*\(\s*"([^"]*)"\s*\)$`)
	rangePattern    = regexp.MustCompile(`^Range\s*\(\s*(-?[\d.]+)f?\s*,\s*(-?[\d.]+)f?\s*\)$`)
)

// Dependency kinds
const (
	DependencyDirect = "direct"
	DependencyArray  = "array"
	DependencyList   = "list"
)

// CreateAssetMenu is the editor menu entry declared on a data asset class
type CreateAssetMenu struct {
	FileName string `json:"fileName,omitempty"`
	MenuName string `json:"menuName,omitempty"`
	Order    int    `json:"order"`
}

// Field is a serialized field of a data asset
type Field struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Access   string  `json:"access"`
	IsArray  bool    `json:"isArray,omitempty"`
	IsList   bool    `json:"isList,omitempty"`
	Header   string  `json:"header,omitempty"`
	HasRange bool    `json:"hasRange,omitempty"`
	RangeMin float64 `json:"rangeMin,omitempty"`
	RangeMax float64 `json:"rangeMax,omitempty"`
	Line     int     `json:"line"`
}

// ScriptableObject describes one data asset class
type ScriptableObject struct {
	ClassName         string           `json:"className"`
	FilePath          string           `json:"filePath"`
	BaseType          string           `json:"baseType"`
	Span              model.Span       `json:"span"`
	CreateMenu        *CreateAssetMenu `json:"createMenu,omitempty"`
	Fields            []Field          `json:"fields"`
	Methods           []string         `json:"methods"`
	ValidationMethods []string         `json:"validationMethods,omitempty"`
	LookupMethods     []string         `json:"lookupMethods,omitempty"`
	ReferencedTypes   []string         `json:"referencedTypes,omitempty"`
	IsConfiguration   bool             `json:"isConfiguration,omitempty"`
	IsDatabase        bool             `json:"isDatabase,omitempty"`
}

// Dependency is a field of a data asset that references an engine asset type
type Dependency struct {
	Source     string `json:"source"`
	TargetType string `json:"targetType"`
	Field      string `json:"field"`
	Kind       string `json:"kind"` // direct, array or list
	Line       int    `json:"line"`
}

// Analyzer finds data asset classes by literal base type name
type Analyzer struct {
	baseTypes map[string]bool
}

// NewAnalyzer creates an analyzer for the asset base types of the context
func NewAnalyzer(actx *config.Context) *Analyzer {
	if actx == nil {
		actx = config.DefaultContext()
	}
	a := &Analyzer{baseTypes: make(map[string]bool)}
	for _, name := range actx.AssetBaseTypes {
		a.baseTypes[name] = true
	}
	return a
}

// Analyze returns the data asset classes of one file and their asset dependencies
func (a *Analyzer) Analyze(file *model.SourceFile) ([]ScriptableObject, []Dependency) {
	var objects []ScriptableObject
	var deps []Dependency

	for _, class := range file.Classes {
		if !a.baseTypes[class.BaseType] {
			continue
		}
		so, d := analyzeClass(file, class)
		objects = append(objects, so)
		deps = append(deps, d...)
	}
	return objects, deps
}

func analyzeClass(file *model.SourceFile, class model.ClassDeclaration) (ScriptableObject, []Dependency) {
	so := ScriptableObject{
		ClassName: class.Name,
		FilePath:  file.Path,
		BaseType:  class.BaseType,
		Span:      class.Span,
		Fields:    []Field{},
		Methods:   []string{},
	}

	for _, attr := range class.Attributes {
		if model.AttributeName(attr) == "CreateAssetMenu" {
			so.CreateMenu = parseCreateAssetMenu(attr)
		}
	}

	var deps []Dependency
	referenced := make(map[string]bool)
	for _, f := range file.FieldsOf(class.Name) {
		if !component.IsSerialized(f) {
			continue
		}
		field := buildField(f)
		so.Fields = append(so.Fields, field)

		if target, kind, ok := AssetType(f.Type); ok {
			referenced[target] = true
			deps = append(deps, Dependency{
				Source:     class.Name,
				TargetType: target,
				Field:      f.Name,
				Kind:       kind,
				Line:       f.Line,
			})
		}
	}
	for t := range referenced {
		so.ReferencedTypes = append(so.ReferencedTypes, t)
	}
	sort.Strings(so.ReferencedTypes)

	for _, m := range file.MethodsOf(class.Name) {
		so.Methods = append(so.Methods, m.Name)
		if IsValidationMethod(m.Name) {
			so.ValidationMethods = append(so.ValidationMethods, m.Name)
		}
		if IsLookupMethod(m.Name) {
			so.LookupMethods = append(so.LookupMethods, m.Name)
		}
	}

	so.IsConfiguration = strings.Contains(so.ClassName, "Settings") || strings.Contains(so.ClassName, "Config")
	so.IsDatabase = strings.Contains(so.ClassName, "Database") ||
		strings.Contains(so.ClassName, "Collection") ||
		len(so.LookupMethods) > 2

	return so, deps
}

func parseCreateAssetMenu(attr string) *CreateAssetMenu {
	menu := &CreateAssetMenu{}
	if m := fileNamePattern.FindStringSubmatch(attr); m != nil {
		menu.FileName = m[1]
	}
	if m := menuNamePattern.FindStringSubmatch(attr); m != nil {
		menu.MenuName = m[1]
	}
	if m := orderPattern.FindStringSubmatch(attr); m != nil {
		menu.Order, _ = strconv.Atoi(m[1])
	}
	return menu
}

func buildField(f model.FieldDeclaration) Field {
	typ := strings.Join(strings.Fields(f.Type), "")
	field := Field{
		Name:    f.Name,
		Type:    typ,
		Access:  string(f.Access),
		IsArray: strings.HasSuffix(typ, "[]"),
		IsList:  strings.HasPrefix(typ, "List<"),
		Line:    f.Line,
	}

	for _, attr := range f.Attributes {
		if m := headerPattern.FindStringSubmatch(attr); m != nil {
			field.Header = m[1]
		}
		if m := rangePattern.FindStringSubmatch(attr); m != nil {
			lo, errLo := strconv.ParseFloat(m[1], 64)
			hi, errHi := strconv.ParseFloat(m[2], 64)
			if errLo == nil && errHi == nil {
				field.HasRange = true
				field.RangeMin, field.RangeMax = lo, hi
			}
		}
	}
	return field
}

// AssetType reports whether typ is an engine asset type, directly, as an
// array or as a List, and returns the element type and the dependency kind
func AssetType(typ string) (string, string, bool) {
	typ = strings.Join(strings.Fields(typ), "")
	kind := DependencyDirect
	switch {
	case strings.HasSuffix(typ, "[]"):
		kind = DependencyArray
	case strings.HasPrefix(typ, "List<") && strings.HasSuffix(typ, ">"):
		kind = DependencyList
	}
	elem := component.ElementType(typ)
	if !assetTypes[elem] {
		return "", "", false
	}
	return elem, kind, true
}

// IsValidationMethod matches OnValidate and methods named like Validate or IsValid
func IsValidationMethod(name string) bool {
	return name == "OnValidate" || strings.Contains(name, "Validate") || strings.Contains(name, "IsValid")
}

// IsLookupMethod matches Get* and Find* methods and methods named like Lookup
func IsLookupMethod(name string) bool {
	return strings.HasPrefix(name, "Get") || strings.HasPrefix(name, "Find") || strings.Contains(name, "Lookup")
}

// Configurations returns the names of configuration assets
func Configurations(objects []ScriptableObject) []string {
	var out []string
	for _, so := range objects {
		if so.IsConfiguration {
			out = append(out, so.ClassName)
		}
	}
	return out
}

// Databases returns the names of database-like assets
func Databases(objects []ScriptableObject) []string {
	var out []string
	for _, so := range objects {
		if so.IsDatabase {
			out = append(out, so.ClassName)
		}
	}
	return out
}

// ReferenceCount counts dependencies per target asset type
func ReferenceCount(deps []Dependency) map[string]int {
	counts := make(map[string]int)
	for _, d := range deps {
		counts[d.TargetType]++
	}
	return counts
}

// DependenciesOf returns the dependencies declared by one data asset
func DependenciesOf(deps []Dependency, className string) []Dependency {
	var out []Dependency
	for _, d := range deps {
		if d.Source == className {
			out = append(out, d)
		}
	}
	return out
}
