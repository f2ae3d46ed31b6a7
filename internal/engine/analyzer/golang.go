package analyzer

import (
	"strconv"
	"strings"

	"symscope/internal/engine/symtab"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type goFrontend struct{}

func (goFrontend) name() string { return "go" }

func (goFrontend) extensions() []string { return []string{".go"} }

func (goFrontend) builtins() []builtin {
	fn := func(name string, typ symtab.Type) builtin {
		return builtin{name: name, kind: symtab.KindFunction, typ: typ}
	}
	items := []builtin{
		fn("append", symtab.TypeUndefined), fn("cap", symtab.TypeInt), fn("clear", symtab.TypeVoid),
		fn("close", symtab.TypeVoid), fn("complex", symtab.TypeUndefined), fn("copy", symtab.TypeInt),
		fn("delete", symtab.TypeVoid), fn("imag", symtab.TypeReal), fn("len", symtab.TypeInt),
		fn("make", symtab.TypeUndefined), fn("max", symtab.TypeUndefined), fn("min", symtab.TypeUndefined),
		fn("new", symtab.TypeUndefined), fn("panic", symtab.TypeVoid), fn("print", symtab.TypeVoid),
		fn("println", symtab.TypeVoid), fn("real", symtab.TypeReal), fn("recover", symtab.TypeUndefined),
		{name: "true", kind: symtab.KindConstant, typ: symtab.TypeBool},
		{name: "false", kind: symtab.KindConstant, typ: symtab.TypeBool},
		{name: "iota", kind: symtab.KindConstant, typ: symtab.TypeInt},
		{name: "nil", kind: symtab.KindConstant, typ: symtab.TypeUndefined},
	}
	for _, name := range []string{"bool", "byte", "error", "float32", "float64", "int", "int8", "int16",
		"int32", "int64", "rune", "string", "uint", "uint8", "uint16", "uint32", "uint64", "uintptr", "any"} {
		items = append(items, builtin{name: name, kind: symtab.KindType, typ: goPrimitive(name)})
	}
	return items
}

func (g goFrontend) analyze(s *session, root *sitter.Node) {
	s.open(ScopeFile, s.path, 1, false)
	g.declareTopLevel(s, root, true)
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		switch child.Kind() {
		case "function_declaration", "method_declaration":
			g.function(s, child)
		case "var_declaration", "const_declaration":
			// Names were installed up front; only the initializers remain.
			forEachSpec(child, func(spec *sitter.Node) {
				g.walk(s, spec.ChildByFieldName("value"))
			})
		case "import_declaration", "package_clause", "type_declaration", "comment":
		default:
			g.walk(s, child)
		}
	}
	s.close()
}

func (goFrontend) packageName(s *session, root *sitter.Node) string {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child.Kind() != "package_clause" {
			continue
		}
		for j := uint(0); j < child.NamedChildCount(); j++ {
			if name := child.NamedChild(j); name.Kind() == "package_identifier" {
				return s.text(name)
			}
		}
	}
	return ""
}

// declarePackage installs the names a file adds to its package. Imports are
// file scoped and stay out.
func (g goFrontend) declarePackage(s *session, root *sitter.Node) {
	g.declareTopLevel(s, root, false)
}

// declareTopLevel installs package-level names before any body is walked,
// since Go resolves them regardless of declaration order.
func (g goFrontend) declareTopLevel(s *session, root *sitter.Node, withImports bool) {
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		switch child.Kind() {
		case "import_declaration":
			if withImports {
				g.imports(s, child)
			}
		case "function_declaration":
			nameNode := child.ChildByFieldName("name")
			if s.text(nameNode) == "init" {
				// init may repeat and cannot be referenced.
				continue
			}
			fn := s.declare(nameNode, s.text(nameNode), symtab.KindFunction, g.resultType(s, child), declExclusive)
			s.addParams(fn, child, g.paramTypes(s, child.ChildByFieldName("parameters")))
		case "type_declaration":
			g.typeDecl(s, child)
		case "var_declaration":
			forEachSpec(child, func(spec *sitter.Node) { g.varSpec(s, spec, symtab.KindVariable, false) })
		case "const_declaration":
			g.constDecl(s, child, false)
		}
	}
}

func (g goFrontend) imports(s *session, node *sitter.Node) {
	if node == nil {
		return
	}
	if node.Kind() != "import_spec" {
		for i := uint(0); i < node.ChildCount(); i++ {
			g.imports(s, node.Child(i))
		}
		return
	}
	nameNode := node.ChildByFieldName("name")
	pathNode := node.ChildByFieldName("path")
	name := ""
	switch {
	case nameNode != nil && nameNode.Kind() == "package_identifier":
		name = s.text(nameNode)
	case nameNode != nil:
		// Dot and blank imports bind no name.
		return
	case pathNode != nil:
		name = importName(strings.Trim(s.text(pathNode), "\"`"))
	}
	anchor := nameNode
	if anchor == nil {
		anchor = pathNode
	}
	if anchor != nil {
		s.declare(anchor, name, symtab.KindPackage, symtab.TypeUndefined, declExclusive)
	}
}

// importName guesses the package name from an import path, skipping major
// version suffixes such as /v2.
func importName(path string) string {
	parts := strings.Split(path, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		if len(part) > 1 && part[0] == 'v' && isDigits(part[1:]) && i > 0 {
			continue
		}
		if idx := strings.IndexAny(part, ".-"); idx > 0 && i > 0 {
			part = part[:idx]
		}
		return part
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// forEachSpec visits var_spec and const_spec nodes of a declaration,
// including grouped specs.
func forEachSpec(node *sitter.Node, fn func(*sitter.Node)) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "var_spec", "const_spec":
			fn(child)
		case "var_spec_list", "const_spec_list":
			forEachSpec(child, fn)
		}
	}
}

func specNames(node *sitter.Node) []*sitter.Node {
	var names []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "identifier" {
			names = append(names, child)
		}
		if child.Kind() == "=" {
			break
		}
	}
	return names
}

func valueAt(list *sitter.Node, i int) *sitter.Node {
	if list == nil {
		return nil
	}
	if list.Kind() != "expression_list" {
		if i == 0 {
			return list
		}
		return nil
	}
	if uint(i) >= list.NamedChildCount() {
		return nil
	}
	return list.NamedChild(uint(i))
}

// varSpec installs the names of one var or const spec. When walkValues is
// set the initializers are resolved first, so they cannot see the names.
func (g goFrontend) varSpec(s *session, spec *sitter.Node, kind symtab.Kind, walkValues bool) {
	values := spec.ChildByFieldName("value")
	if walkValues {
		g.walk(s, values)
	}
	typeNode := spec.ChildByFieldName("type")
	for i, nameNode := range specNames(spec) {
		g.declareTyped(s, nameNode, kind, typeNode, valueAt(values, i), declExclusive)
	}
}

// constDecl carries the last explicit type over implicitly repeated specs.
func (g goFrontend) constDecl(s *session, node *sitter.Node, walkValues bool) {
	var lastType *sitter.Node
	forEachSpec(node, func(spec *sitter.Node) {
		values := spec.ChildByFieldName("value")
		if walkValues {
			g.walk(s, values)
		}
		typeNode := spec.ChildByFieldName("type")
		if typeNode != nil || values != nil {
			lastType = typeNode
		}
		for i, nameNode := range specNames(spec) {
			g.declareTyped(s, nameNode, symtab.KindConstant, lastType, valueAt(values, i), declExclusive)
		}
	})
}

func (g goFrontend) declareTyped(s *session, nameNode *sitter.Node, kind symtab.Kind, typeNode, value *sitter.Node, mode declMode) *symtab.Symbol {
	name := s.text(nameNode)
	if typeNode != nil && typeNode.Kind() == "array_type" {
		elem := g.typeOf(s, typeNode.ChildByFieldName("element"))
		length := parseLength(s.text(typeNode.ChildByFieldName("length")))
		return s.declareArray(nameNode, name, elem, length, mode)
	}

	typ := symtab.TypeUndefined
	if typeNode != nil {
		typ = g.typeOf(s, typeNode)
	} else if value != nil {
		if value.Kind() == "composite_literal" {
			if lit := value.ChildByFieldName("type"); lit != nil && lit.Kind() == "array_type" {
				return g.declareTyped(s, nameNode, kind, lit, nil, mode)
			}
		}
		typ = goLiteralType(value.Kind())
	}
	sym := s.declare(nameNode, name, kind, typ, mode)
	if kind == symtab.KindConstant && value != nil {
		setValue(sym, g.literalValue(s, value))
	}
	return sym
}

func parseLength(text string) int {
	n, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64)
	if err != nil || n < 1 {
		return 1
	}
	return int(n)
}

func (g goFrontend) typeDecl(s *session, node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "type_spec" && child.Kind() != "type_alias" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		s.declare(nameNode, s.text(nameNode), symtab.KindType, g.typeOf(s, child.ChildByFieldName("type")), declExclusive)
	}
}

// function walks a function, method or function literal in its own scope.
func (g goFrontend) function(s *session, node *sitter.Node) {
	name := "func literal"
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		name = s.text(nameNode)
	}
	s.open(ScopeFunction, name, int(node.StartPosition().Row)+1, true)
	if recv := node.ChildByFieldName("receiver"); recv != nil {
		g.params(s, recv)
	}
	g.params(s, node.ChildByFieldName("parameters"))
	if result := node.ChildByFieldName("result"); result != nil && result.Kind() == "parameter_list" {
		g.params(s, result)
	}
	// The body block shares the function scope with the parameters.
	if body := node.ChildByFieldName("body"); body != nil {
		g.statements(s, body)
	}
	s.close()
}

func (g goFrontend) params(s *session, list *sitter.Node) {
	if list == nil {
		return
	}
	for i := uint(0); i < list.ChildCount(); i++ {
		param := list.Child(i)
		if param.Kind() != "parameter_declaration" && param.Kind() != "variadic_parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		for j := uint(0); j < param.ChildCount(); j++ {
			if nameNode := param.Child(j); nameNode.Kind() == "identifier" {
				g.declareTyped(s, nameNode, symtab.KindVariable, typeNode, nil, declExclusive)
			}
		}
	}
}

// paramTypes lists one type per declared parameter.
func (g goFrontend) paramTypes(s *session, list *sitter.Node) []symtab.Type {
	if list == nil {
		return nil
	}
	var types []symtab.Type
	for i := uint(0); i < list.ChildCount(); i++ {
		param := list.Child(i)
		if param.Kind() != "parameter_declaration" && param.Kind() != "variadic_parameter_declaration" {
			continue
		}
		typ := g.typeOf(s, param.ChildByFieldName("type"))
		names := 0
		for j := uint(0); j < param.ChildCount(); j++ {
			if param.Child(j).Kind() == "identifier" {
				names++
			}
		}
		if names == 0 {
			names = 1
		}
		for ; names > 0; names-- {
			types = append(types, typ)
		}
	}
	return types
}

func (g goFrontend) resultType(s *session, fn *sitter.Node) symtab.Type {
	result := fn.ChildByFieldName("result")
	if result == nil {
		return symtab.TypeVoid
	}
	if result.Kind() != "parameter_list" {
		return g.typeOf(s, result)
	}
	types := g.paramTypes(s, result)
	if len(types) == 1 {
		return types[0]
	}
	return symtab.TypeUndefined
}

func (g goFrontend) typeOf(s *session, node *sitter.Node) symtab.Type {
	if node == nil {
		return symtab.TypeUndefined
	}
	switch node.Kind() {
	case "type_identifier":
		return goPrimitive(s.text(node))
	case "parenthesized_type":
		if node.NamedChildCount() > 0 {
			return g.typeOf(s, node.NamedChild(0))
		}
	}
	return symtab.TypeUndefined
}

func goPrimitive(name string) symtab.Type {
	switch name {
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "uintptr":
		return symtab.TypeInt
	case "float32", "float64":
		return symtab.TypeReal
	case "string":
		return symtab.TypeString
	case "bool":
		return symtab.TypeBool
	case "byte", "rune":
		return symtab.TypeChar
	}
	return symtab.TypeUndefined
}

func goLiteralType(kind string) symtab.Type {
	switch kind {
	case "int_literal":
		return symtab.TypeInt
	case "float_literal":
		return symtab.TypeReal
	case "interpreted_string_literal", "raw_string_literal":
		return symtab.TypeString
	case "rune_literal":
		return symtab.TypeChar
	case "true", "false":
		return symtab.TypeBool
	}
	return symtab.TypeUndefined
}

func (g goFrontend) literalValue(s *session, node *sitter.Node) symtab.Value {
	text := s.text(node)
	switch node.Kind() {
	case "int_literal":
		if n, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64); err == nil {
			return symtab.IntValue(n)
		}
	case "float_literal":
		if f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64); err == nil {
			return symtab.RealValue(f)
		}
	case "interpreted_string_literal", "raw_string_literal":
		if str, err := strconv.Unquote(text); err == nil {
			return symtab.StringValue(str)
		}
	case "rune_literal":
		if r, _, _, err := strconv.UnquoteChar(strings.Trim(text, "'"), '\''); err == nil {
			return symtab.IntValue(r)
		}
	case "true":
		return symtab.IntValue(1)
	case "false":
		return symtab.IntValue(0)
	}
	return nil
}

// statements walks the children of a block without opening a scope for it.
func (g goFrontend) statements(s *session, block *sitter.Node) {
	for i := uint(0); i < block.ChildCount(); i++ {
		g.walk(s, block.Child(i))
	}
}

func (g goFrontend) walk(s *session, node *sitter.Node) {
	if node == nil || s.failed() {
		return
	}

	switch node.Kind() {
	case "identifier":
		s.use(node, s.text(node))
		return

	case "block":
		s.open(ScopeBlock, "block", int(node.StartPosition().Row)+1, false)
		g.statements(s, node)
		s.close()
		return

	case "func_literal":
		g.function(s, node)
		return

	case "if_statement", "for_statement", "expression_switch_statement", "type_switch_statement", "select_statement":
		g.compound(s, node)
		return

	case "expression_case", "default_case", "type_case", "communication_case":
		s.open(ScopeBlock, strings.TrimSuffix(node.Kind(), "_case")+" case", int(node.StartPosition().Row)+1, false)
		g.caseClause(s, node)
		s.close()
		return

	case "short_var_declaration":
		g.shortVar(s, node.ChildByFieldName("left"), node.ChildByFieldName("right"))
		return

	case "range_clause":
		g.rangeClause(s, node)
		return

	case "receive_statement":
		if hasChild(node, ":=") {
			g.shortVar(s, node.ChildByFieldName("left"), node.ChildByFieldName("right"))
			return
		}

	case "var_declaration":
		forEachSpec(node, func(spec *sitter.Node) { g.varSpec(s, spec, symtab.KindVariable, true) })
		return

	case "const_declaration":
		g.constDecl(s, node, true)
		return

	case "type_declaration":
		g.typeDecl(s, node)
		return

	case "labeled_statement":
		if label := node.ChildByFieldName("label"); label != nil {
			s.declareIn(s.functionFrame(), label, s.text(label), symtab.KindLabel, symtab.TypeUndefined, 1, declExclusive)
		}

	case "selector_expression":
		g.walk(s, node.ChildByFieldName("operand"))
		return

	case "composite_literal":
		g.compositeLiteral(s, node)
		return

	case "keyed_element":
		g.keyedElement(s, node)
		return

	case "break_statement", "continue_statement", "goto_statement",
		"field_identifier", "package_identifier", "type_identifier", "label_name", "comment":
		return

	case "parameter_list", "parameter_declaration", "type_parameter_list":
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		g.walk(s, node.Child(i))
	}
}

// compound opens the implicit scope around if, for and switch statements, so
// their init statements stay local to them.
func (g goFrontend) compound(s *session, node *sitter.Node) {
	s.open(ScopeBlock, strings.TrimSuffix(node.Kind(), "_statement"), int(node.StartPosition().Row)+1, false)
	if node.Kind() == "type_switch_statement" {
		g.walk(s, node.ChildByFieldName("initializer"))
		g.walk(s, node.ChildByFieldName("value"))
		if alias := node.ChildByFieldName("alias"); alias != nil {
			for i := uint(0); i < alias.NamedChildCount(); i++ {
				nameNode := alias.NamedChild(i)
				s.declare(nameNode, s.text(nameNode), symtab.KindVariable, symtab.TypeUndefined, declExclusive)
			}
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child.Kind() == "type_case" || child.Kind() == "default_case" {
				g.walk(s, child)
			}
		}
	} else {
		for i := uint(0); i < node.ChildCount(); i++ {
			g.walk(s, node.Child(i))
		}
	}
	s.close()
}

func (g goFrontend) caseClause(s *session, node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if node.Kind() == "type_case" && isTypeNode(child.Kind()) {
			continue
		}
		g.walk(s, child)
	}
}

// shortVar resolves the right-hand side, then declares the names on the left
// that are new to this scope. Names already in scope are assignments.
func (g goFrontend) shortVar(s *session, left, right *sitter.Node) {
	g.walk(s, right)
	if left == nil {
		return
	}
	top := s.top()
	for i := uint(0); i < left.NamedChildCount(); i++ {
		nameNode := left.NamedChild(i)
		if nameNode.Kind() != "identifier" {
			g.walk(s, nameNode)
			continue
		}
		name := s.text(nameNode)
		if top != nil {
			if _, ok := top.table.Search(name); ok {
				s.use(nameNode, name)
				continue
			}
		}
		g.declareTyped(s, nameNode, symtab.KindVariable, nil, valueAt(right, int(i)), declExclusive)
	}
}

func (g goFrontend) rangeClause(s *session, node *sitter.Node) {
	right := node.ChildByFieldName("right")
	left := node.ChildByFieldName("left")
	if !hasChild(node, ":=") {
		g.walk(s, left)
		g.walk(s, right)
		return
	}
	g.walk(s, right)
	if left == nil {
		return
	}
	for i := uint(0); i < left.NamedChildCount(); i++ {
		nameNode := left.NamedChild(i)
		s.declare(nameNode, s.text(nameNode), symtab.KindVariable, symtab.TypeUndefined, declExclusive)
	}
}

// compositeLiteral resolves the keys of map, slice and array literals as
// expressions. Keys of other literals name struct fields.
func (g goFrontend) compositeLiteral(s *session, node *sitter.Node) {
	typ := node.ChildByFieldName("type")
	g.walk(s, typ)
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	exprKeys := typ != nil && hasExpressionKeys(typ)
	for i := uint(0); i < body.NamedChildCount(); i++ {
		elem := body.NamedChild(i)
		if exprKeys && elem.Kind() == "keyed_element" {
			for j := uint(0); j < elem.NamedChildCount(); j++ {
				g.walk(s, elem.NamedChild(j))
			}
			continue
		}
		g.walk(s, elem)
	}
}

func hasExpressionKeys(typ *sitter.Node) bool {
	switch typ.Kind() {
	case "map_type", "slice_type", "array_type", "implicit_length_array_type":
		return true
	case "parenthesized_type":
		return typ.NamedChildCount() > 0 && hasExpressionKeys(typ.NamedChild(0))
	}
	return false
}

// keyedElement skips bare identifier keys, which name struct fields.
func (g goFrontend) keyedElement(s *session, node *sitter.Node) {
	key := node.ChildByFieldName("key")
	if key == nil && node.NamedChildCount() > 0 {
		key = node.NamedChild(0)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if key != nil && sameNode(child, key) && isBareIdentifier(child) {
			continue
		}
		g.walk(s, child)
	}
}

func isBareIdentifier(node *sitter.Node) bool {
	if node.Kind() == "identifier" || node.Kind() == "field_identifier" {
		return true
	}
	return node.NamedChildCount() == 1 && isBareIdentifier(node.NamedChild(0))
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}

func hasChild(node *sitter.Node, kind string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == kind {
			return true
		}
	}
	return false
}

func isTypeNode(kind string) bool {
	switch kind {
	case "type_identifier", "qualified_type", "pointer_type", "array_type", "slice_type", "map_type",
		"channel_type", "function_type", "interface_type", "struct_type", "generic_type", "parenthesized_type":
		return true
	}
	return false
}
