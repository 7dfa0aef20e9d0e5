package extractor

import (
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"docgen/internal/cache"
	"docgen/internal/entity"
	"docgen/internal/registry"
)

// JavaExtractor implements LanguageExtractor for the Java grammar.
type JavaExtractor struct{}

func (j *JavaExtractor) Language() *sitter.Language {
	return java.GetLanguage()
}

var (
	depQueryOnce sync.Once
	depQuery     *sitter.Query
)

func javaDepQuery() *sitter.Query {
	depQueryOnce.Do(func() {
		q, err := sitter.NewQuery([]byte(DependencyQuery), java.GetLanguage())
		if err != nil {
			panic("invalid dependency query: " + err.Error())
		}
		depQuery = q
	})
	return depQuery
}

var accessModifiers = map[string]bool{
	"public":    true,
	"protected": true,
	"private":   true,
}

// modifierSet is the parsed form of a `modifiers` node. Access defaults
// to the package-private sentinel, which is omitted from signatures.
type modifierSet struct {
	marker       string // first annotation token, e.g. "@Override"
	access       string
	isAbstract   bool
	isStatic     bool
	isFinal      bool
	isSync       bool
	isVolatile   bool
}

func parseModifiers(mods []string) modifierSet {
	ms := modifierSet{access: "package-private"}
	for _, mod := range mods {
		if strings.HasPrefix(mod, "@") {
			if ms.marker == "" {
				ms.marker = mod
			}
			continue
		}
		if accessModifiers[mod] {
			ms.access = mod
		}
		switch mod {
		case "abstract":
			ms.isAbstract = true
		case "static":
			ms.isStatic = true
		case "final":
			ms.isFinal = true
		case "synchronized":
			ms.isSync = true
		case "volatile":
			ms.isVolatile = true
		}
	}
	return ms
}

// prefixParts returns the signature prefix tokens in canonical order.
func (ms modifierSet) prefixParts() []string {
	var parts []string
	if ms.marker != "" {
		parts = append(parts, ms.marker)
	}
	if ms.access != "package-private" {
		parts = append(parts, ms.access)
	}
	if ms.isAbstract {
		parts = append(parts, "abstract")
	}
	if ms.isStatic {
		parts = append(parts, "static")
	}
	if ms.isFinal {
		parts = append(parts, "final")
	}
	if ms.isSync {
		parts = append(parts, "synchronized")
	}
	if ms.isVolatile {
		parts = append(parts, "volatile")
	}
	return parts
}

func joinScope(scope, identifier string) string {
	if scope == "" {
		return identifier
	}
	return scope + "." + identifier
}

// BuildFile walks the root node of one Java source unit and produces the
// File entity with its full class/method/field tree. Malformed members
// degrade to placeholders; nothing here aborts the file.
func (j *JavaExtractor) BuildFile(ufid string, root *sitter.Node, source []byte, reg *registry.Registry) *entity.File {
	file := &entity.File{UFID: ufid}

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "package_declaration":
			for k := 0; k < int(child.ChildCount()); k++ {
				gc := child.Child(k)
				if gc.Type() == "scoped_identifier" || gc.Type() == "identifier" {
					file.Package = gc.Content(source)
					break
				}
			}
		case "import_declaration":
			for k := 0; k < int(child.ChildCount()); k++ {
				gc := child.Child(k)
				if gc.Type() == "scoped_identifier" || gc.Type() == "identifier" {
					file.Imports = append(file.Imports, gc.Content(source))
					break
				}
			}
		case "class_declaration":
			file.Classes = append(file.Classes, j.buildClass(child, source, file.Package, reg))
		case "enum_declaration":
			file.Classes = append(file.Classes, j.buildEnum(child, source, file.Package, reg))
		}
	}

	return file
}

func (j *JavaExtractor) buildClass(node *sitter.Node, source []byte, scope string, reg *registry.Registry) *entity.Class {
	identifier := "Unknown"
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		identifier = nameNode.Content(source)
	}

	class := entity.NewClass(joinScope(scope, identifier), identifier, entity.KindClass)

	var mods []string
	var bodyNode *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "modifiers":
			mods = strings.Fields(child.Content(source))
		case "superclass":
			for k := 0; k < int(child.ChildCount()); k++ {
				gc := child.Child(k)
				switch gc.Type() {
				case "type_identifier", "scoped_type_identifier", "generic_type":
					class.Superclass = gc.Content(source)
				}
			}
		case "super_interfaces":
			class.Interfaces = append(class.Interfaces, typeListMembers(child, source)...)
		case "type_parameters":
			for k := 0; k < int(child.ChildCount()); k++ {
				if gc := child.Child(k); gc.Type() == "type_parameter" {
					class.TypeParams = append(class.TypeParams, gc.Content(source))
				}
			}
		case "class_body":
			bodyNode = child
			class.Body = child.Content(source)
		}
	}

	class.Signature = classSignature(parseModifiers(mods), class)

	if bodyNode != nil {
		j.buildMembers(bodyNode, source, class, reg)
	}
	return class
}

// buildMembers walks a class or enum body and attaches methods, fields,
// nested classes and nested enums to the owner.
func (j *JavaExtractor) buildMembers(bodyNode *sitter.Node, source []byte, owner *entity.Class, reg *registry.Registry) {
	for i := 0; i < int(bodyNode.ChildCount()); i++ {
		child := bodyNode.Child(i)
		switch child.Type() {
		case "method_declaration", "constructor_declaration":
			m := j.buildMethod(child, source, owner)
			reg.Register(m)
			owner.Methods[m.UMID] = m
		case "field_declaration":
			f := j.buildField(child, source, owner)
			owner.Fields[f.Identifier] = f
		case "class_declaration":
			nested := j.buildClass(child, source, owner.UCID, reg)
			owner.Nested[nested.UCID] = nested
		case "enum_declaration":
			nested := j.buildEnum(child, source, owner.UCID, reg)
			owner.Nested[nested.UCID] = nested
		}
	}
}

func (j *JavaExtractor) buildMethod(node *sitter.Node, source []byte, owner *entity.Class) *entity.Method {
	isCtor := node.Type() == "constructor_declaration"

	identifier := "Unknown"
	if isCtor {
		identifier = "<init>"
	} else if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		identifier = nameNode.Content(source)
	}

	returnType := "void"
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		returnType = typeNode.Content(source)
	} else if isCtor {
		returnType = owner.UCID
	}

	var mods []string
	var typeParams []string
	var throws string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "modifiers":
			mods = strings.Fields(child.Content(source))
		case "type_parameters":
			for k := 0; k < int(child.ChildCount()); k++ {
				if gc := child.Child(k); gc.Type() == "type_parameter" {
					typeParams = append(typeParams, gc.Content(source))
				}
			}
		case "throws":
			throws = child.Content(source)
		}
	}

	var params, paramTypes []string
	if paramsNode := node.ChildByFieldName("parameters"); paramsNode != nil {
		for i := 0; i < int(paramsNode.ChildCount()); i++ {
			child := paramsNode.Child(i)
			if child.Type() != "formal_parameter" && child.Type() != "spread_parameter" {
				continue
			}
			params = append(params, child.Content(source))
			if typeNode := child.ChildByFieldName("type"); typeNode != nil {
				if child.Type() == "spread_parameter" {
					paramTypes = append(paramTypes, typeNode.Content(source)+"...")
				} else {
					paramTypes = append(paramTypes, typeNode.Content(source))
				}
			} else {
				paramTypes = append(paramTypes, child.Content(source))
			}
		}
	}

	var body string
	bodyNode := node.ChildByFieldName("body")
	if bodyNode != nil {
		body = bodyNode.Content(source)
	}

	m := &entity.Method{
		UMID:       owner.UCID + "#" + identifier + "(" + strings.Join(paramTypes, ",") + ")",
		ScopedID:   owner.UCID + "." + identifier,
		ClassUCID:  owner.UCID,
		Identifier: identifier,
		ReturnType: returnType,
		Parameters: params,
		ParamTypes: paramTypes,
		Arity:      len(params),
		Body:       body,
		BodyHash:   cache.HashBody(body),
		Line:       int(node.StartPoint().Row) + 1,
	}
	m.Signature = methodSignature(parseModifiers(mods), m, typeParams, throws)

	if bodyNode != nil {
		m.RawDeps = extractRawDeps(bodyNode, source)
	}
	return m
}

// extractRawDeps captures every call site in the body and deduplicates
// by callee name plus apparent argument count. The result is sorted so
// resolution order never depends on capture order.
func extractRawDeps(bodyNode *sitter.Node, source []byte) []entity.RawDep {
	query := javaDepQuery()
	qc := sitter.NewQueryCursor()
	qc.Exec(query, bodyNode)

	seen := make(map[entity.RawDep]bool)
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		dep := entity.RawDep{Argc: -1}
		for _, c := range match.Captures {
			switch query.CaptureNameForId(c.Index) {
			case "callee":
				dep.Name = c.Node.Content(source)
			case "args":
				dep.Argc = int(c.Node.NamedChildCount())
			}
		}
		if dep.Name == "" || dep.Argc < 0 {
			continue
		}
		seen[dep] = true
	}

	out := make([]entity.RawDep, 0, len(seen))
	for dep := range seen {
		out = append(out, dep)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Argc < out[j].Argc
	})
	return out
}

func (j *JavaExtractor) buildField(node *sitter.Node, source []byte, owner *entity.Class) *entity.Field {
	fieldType := "Unknown"
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		fieldType = typeNode.Content(source)
	}

	var mods []string
	var declarator *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "modifiers" {
			mods = strings.Fields(child.Content(source))
		}
		// Multi-declarator statements (`int x, y;`) collapse to the first
		// declared name; the remaining declarators are not modeled.
		if child.Type() == "variable_declarator" && declarator == nil {
			declarator = child
		}
	}

	identifier := "Unknown"
	var value string
	if declarator != nil {
		if nameNode := declarator.ChildByFieldName("name"); nameNode != nil {
			identifier = nameNode.Content(source)
		}
		if valueNode := declarator.ChildByFieldName("value"); valueNode != nil {
			value = valueNode.Content(source)
		}
	}

	f := &entity.Field{
		Identifier: identifier,
		Name:       owner.UCID + "." + identifier,
		Type:       fieldType,
		Value:      value,
	}
	f.Signature = fieldSignature(parseModifiers(mods), f)
	return f
}

func (j *JavaExtractor) buildEnum(node *sitter.Node, source []byte, scope string, reg *registry.Registry) *entity.Class {
	identifier := "Unknown"
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		identifier = nameNode.Content(source)
	}

	enum := entity.NewClass(joinScope(scope, identifier), identifier, entity.KindEnum)

	var mods []string
	var bodyNode *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "modifiers":
			mods = strings.Fields(child.Content(source))
		case "super_interfaces":
			enum.Interfaces = append(enum.Interfaces, typeListMembers(child, source)...)
		case "enum_body":
			bodyNode = child
			enum.Body = child.Content(source)
		}
	}

	enum.Signature = classSignature(parseModifiers(mods), enum)

	if bodyNode != nil {
		for i := 0; i < int(bodyNode.ChildCount()); i++ {
			child := bodyNode.Child(i)
			switch child.Type() {
			case "enum_constant":
				constant := "Unknown"
				if nameNode := child.ChildByFieldName("name"); nameNode != nil {
					constant = nameNode.Content(source)
				}
				if argsNode := child.ChildByFieldName("arguments"); argsNode != nil {
					constant += argsNode.Content(source)
				}
				enum.Constants = append(enum.Constants, constant)
			case "enum_body_declarations":
				// Methods, fields and nested types live one level down.
				j.buildMembers(child, source, enum, reg)
			}
		}
	}
	return enum
}

// typeListMembers extracts the type names from a super_interfaces clause.
func typeListMembers(node *sitter.Node, source []byte) []string {
	var out []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "type_list" {
			continue
		}
		for k := 0; k < int(child.ChildCount()); k++ {
			gc := child.Child(k)
			switch gc.Type() {
			case "type_identifier", "scoped_type_identifier", "generic_type":
				out = append(out, gc.Content(source))
			}
		}
	}
	return out
}

// classSignature assembles the display signature for classes and enums:
// modifiers in canonical order, kind, name, generics, supertypes.
func classSignature(ms modifierSet, c *entity.Class) string {
	sig := string(c.Kind) + " " + c.Identifier
	if len(c.TypeParams) > 0 {
		sig += "<" + strings.Join(c.TypeParams, ", ") + ">"
	}

	parts := append(ms.prefixParts(), sig)
	if c.Superclass != "" {
		parts = append(parts, "extends "+c.Superclass)
	}
	if len(c.Interfaces) > 0 {
		parts = append(parts, "implements "+strings.Join(c.Interfaces, ", "))
	}
	return strings.Join(parts, " ")
}

func methodSignature(ms modifierSet, m *entity.Method, typeParams []string, throws string) string {
	sig := m.ReturnType + " " + m.Identifier
	if len(typeParams) > 0 {
		sig += "<" + strings.Join(typeParams, ", ") + ">"
	}
	sig += "(" + strings.Join(m.Parameters, ", ") + ")"

	parts := append(ms.prefixParts(), sig)
	if throws != "" {
		parts = append(parts, throws)
	}
	return strings.Join(parts, " ")
}

func fieldSignature(ms modifierSet, f *entity.Field) string {
	sig := f.Type + " " + f.Identifier
	parts := append(ms.prefixParts(), sig)
	out := strings.Join(parts, " ")
	if f.Value != "" {
		out += " = " + f.Value
	}
	return out
}
