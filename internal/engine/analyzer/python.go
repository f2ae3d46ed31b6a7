package analyzer

import (
	"strconv"
	"strings"

	"symscope/internal/engine/symtab"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// pythonFrontend binds every name assigned anywhere in a function, class or
// module body before walking it, since Python decides locality per body and
// not per statement. Class scopes stay on the stack while their methods are
// walked, so methods can resolve class attributes by bare name.
type pythonFrontend struct{}

func (pythonFrontend) name() string { return "python" }

func (pythonFrontend) extensions() []string { return []string{".py", ".pyi"} }

func (pythonFrontend) builtins() []builtin {
	var items []builtin
	for _, name := range []string{
		"abs", "aiter", "all", "anext", "any", "ascii", "bin", "breakpoint", "callable", "chr",
		"compile", "delattr", "dir", "divmod", "enumerate", "eval", "exec", "filter", "format",
		"getattr", "globals", "hasattr", "hash", "help", "hex", "id", "input", "isinstance",
		"issubclass", "iter", "len", "locals", "map", "max", "min", "next", "oct", "open", "ord",
		"pow", "print", "repr", "reversed", "round", "setattr", "sorted", "sum", "vars", "zip",
		"__import__",
	} {
		items = append(items, builtin{name: name, kind: symtab.KindFunction})
	}
	for _, name := range []string{
		"bool", "bytearray", "bytes", "classmethod", "complex", "dict", "float", "frozenset", "int",
		"list", "memoryview", "object", "property", "range", "set", "slice", "staticmethod", "str",
		"super", "tuple", "type",
	} {
		items = append(items, builtin{name: name, kind: symtab.KindType, typ: pyPrimitive(name)})
	}
	for _, name := range []string{"__name__", "__file__", "__doc__", "__spec__", "__package__", "__builtins__", "__debug__"} {
		items = append(items, builtin{name: name, kind: symtab.KindVariable, typ: symtab.TypeString})
	}
	return items
}

func (p pythonFrontend) analyze(s *session, root *sitter.Node) {
	s.open(ScopeFile, s.path, 1, false)
	p.hoist(s, root)
	p.statements(s, root)
	s.close()
}

func pyPrimitive(name string) symtab.Type {
	switch name {
	case "int":
		return symtab.TypeInt
	case "float":
		return symtab.TypeReal
	case "str":
		return symtab.TypeString
	case "bool":
		return symtab.TypeBool
	}
	return symtab.TypeUndefined
}

func pyLiteralType(kind string) symtab.Type {
	switch kind {
	case "integer":
		return symtab.TypeInt
	case "float":
		return symtab.TypeReal
	case "string", "concatenated_string":
		return symtab.TypeString
	case "true", "false":
		return symtab.TypeBool
	}
	return symtab.TypeUndefined
}

func (p pythonFrontend) annotationType(s *session, node *sitter.Node) symtab.Type {
	if node == nil {
		return symtab.TypeUndefined
	}
	return pyPrimitive(strings.TrimSpace(s.text(node)))
}

func isComprehension(kind string) bool {
	switch kind {
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		return true
	}
	return false
}

// opensScope reports whether node starts a body the enclosing hoist must not
// look into.
func opensScope(kind string) bool {
	return kind == "function_definition" || kind == "class_definition" || kind == "lambda" || isComprehension(kind)
}

// collectPassthrough records global and nonlocal names of the current body.
// Global names are also bound at module level.
func (p pythonFrontend) collectPassthrough(s *session, node *sitter.Node) {
	if node == nil || opensScope(node.Kind()) {
		return
	}
	switch node.Kind() {
	case "global_statement", "nonlocal_statement":
		f := s.top()
		if f.passthrough == nil {
			f.passthrough = make(map[string]bool)
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			nameNode := node.NamedChild(i)
			if nameNode.Kind() != "identifier" {
				continue
			}
			name := s.text(nameNode)
			if node.Kind() == "global_statement" {
				s.declareIn(s.fileFrame(), nameNode, name, symtab.KindVariable, symtab.TypeUndefined, 1, declRebind)
			}
			f.passthrough[name] = true
		}
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		p.collectPassthrough(s, node.Child(i))
	}
}

// hoist binds the names a body assigns, defines or imports in the current
// scope.
func (p pythonFrontend) hoist(s *session, node *sitter.Node) {
	if node == nil || s.failed() {
		return
	}
	switch node.Kind() {
	case "function_definition":
		nameNode := node.ChildByFieldName("name")
		fn := s.declare(nameNode, s.text(nameNode), symtab.KindFunction, p.annotationType(s, node.ChildByFieldName("return_type")), declRebind)
		if fn != nil && fn.ParamCount() == 0 && fn.Line() == int(nameNode.StartPosition().Row)+1 {
			s.addParams(fn, node, p.paramTypes(s, node.ChildByFieldName("parameters")))
		}
		return
	case "class_definition":
		nameNode := node.ChildByFieldName("name")
		s.declare(nameNode, s.text(nameNode), symtab.KindType, symtab.TypeUndefined, declRebind)
		return
	case "lambda", "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		return
	case "assignment":
		p.bindTargets(s, node.ChildByFieldName("left"), node.ChildByFieldName("right"), node.ChildByFieldName("type"))
		p.hoist(s, node.ChildByFieldName("right"))
		return
	case "augmented_assignment":
		p.bindTargets(s, node.ChildByFieldName("left"), nil, nil)
		p.hoist(s, node.ChildByFieldName("right"))
		return
	case "for_statement":
		p.bindTargets(s, node.ChildByFieldName("left"), nil, nil)
	case "named_expression":
		p.bindTargets(s, node.ChildByFieldName("name"), node.ChildByFieldName("value"), nil)
	case "as_pattern":
		p.bindTargets(s, node.ChildByFieldName("alias"), nil, nil)
	case "except_clause":
		p.exceptAlias(s, node)
	case "import_statement", "import_from_statement":
		p.imports(s, node)
		return
	case "case_pattern":
		p.matchPattern(s, node, true)
		return
	case "global_statement", "nonlocal_statement":
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		p.hoist(s, node.Child(i))
	}
}

// matchPattern visits a case pattern. While hoisting it binds the capture
// names: bare names, star and double-star captures, and "as" aliases. While
// walking it resolves the names a pattern reads, such as class names and
// dotted value patterns.
func (p pythonFrontend) matchPattern(s *session, node *sitter.Node, hoisting bool) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case "identifier":
		if hoisting {
			p.bindTargets(s, node, nil, nil)
		}
		return
	case "dotted_name":
		if node.NamedChildCount() == 1 {
			p.matchPattern(s, node.NamedChild(0), hoisting)
		} else if !hoisting && node.NamedChildCount() > 0 {
			p.walk(s, node.NamedChild(0))
		}
		return
	case "class_pattern":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if i == 0 && child.Kind() == "dotted_name" {
				if !hoisting && child.NamedChildCount() > 0 {
					p.walk(s, child.NamedChild(0))
				}
				continue
			}
			p.matchPattern(s, child, hoisting)
		}
		return
	case "keyword_pattern":
		// The keyword names an attribute of the subject.
		for i := uint(1); i < node.NamedChildCount(); i++ {
			p.matchPattern(s, node.NamedChild(i), hoisting)
		}
		return
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		p.matchPattern(s, node.NamedChild(i), hoisting)
	}
}

// bindTargets declares the plain names of an assignment target, taking the
// element type from an annotation or a literal right-hand side.
func (p pythonFrontend) bindTargets(s *session, target, value, annotation *sitter.Node) {
	if target == nil {
		return
	}
	switch target.Kind() {
	case "identifier":
		typ := p.annotationType(s, annotation)
		if typ == symtab.TypeUndefined && value != nil {
			typ = pyLiteralType(value.Kind())
		}
		sym := s.declare(target, s.text(target), symtab.KindVariable, typ, declRebind)
		if sym != nil && value != nil && sym.Line() == int(target.StartPosition().Row)+1 {
			setValue(sym, p.literalValue(s, value))
		}
	case "pattern_list", "tuple_pattern", "list_pattern", "expression_list", "tuple", "list",
		"parenthesized_expression", "list_splat_pattern", "list_splat", "as_pattern_target":
		for i := uint(0); i < target.NamedChildCount(); i++ {
			p.bindTargets(s, target.NamedChild(i), nil, nil)
		}
	}
}

func (p pythonFrontend) literalValue(s *session, node *sitter.Node) symtab.Value {
	text := s.text(node)
	switch node.Kind() {
	case "integer":
		if n, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64); err == nil {
			return symtab.IntValue(n)
		}
	case "float":
		if f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64); err == nil {
			return symtab.RealValue(f)
		}
	case "string":
		if len(text) >= 2 && (text[0] == '"' || text[0] == '\'') && !strings.HasPrefix(text, `"""`) && !strings.HasPrefix(text, "'''") {
			return symtab.StringValue(text[1 : len(text)-1])
		}
	case "true":
		return symtab.IntValue(1)
	case "false":
		return symtab.IntValue(0)
	}
	return nil
}

// exceptAlias binds the name after "as" in an except clause.
func (p pythonFrontend) exceptAlias(s *session, node *sitter.Node) {
	if alias := node.ChildByFieldName("alias"); alias != nil {
		p.bindTargets(s, alias, nil, nil)
		return
	}
	for i := uint(0); i+1 < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "as" {
			p.bindTargets(s, node.Child(i+1), nil, nil)
			return
		}
	}
}

func (p pythonFrontend) imports(s *session, node *sitter.Node) {
	module := node.ChildByFieldName("module_name")
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if module != nil && sameNode(child, module) {
			continue
		}
		switch child.Kind() {
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				s.declare(alias, s.text(alias), symtab.KindPackage, symtab.TypeUndefined, declRebind)
			}
		case "dotted_name":
			if child.NamedChildCount() == 0 {
				continue
			}
			// "import a.b" binds a; "from m import a" binds a.
			nameNode := child.NamedChild(0)
			kind := symtab.KindPackage
			if node.Kind() == "import_from_statement" {
				nameNode = child.NamedChild(child.NamedChildCount() - 1)
				kind = symtab.KindVariable
			}
			s.declare(nameNode, s.text(nameNode), kind, symtab.TypeUndefined, declRebind)
		}
	}
}

// paramTypes lists the annotated type of each declared parameter.
func (p pythonFrontend) paramTypes(s *session, params *sitter.Node) []symtab.Type {
	if params == nil {
		return nil
	}
	var types []symtab.Type
	for i := uint(0); i < params.NamedChildCount(); i++ {
		param := params.NamedChild(i)
		if paramName(param) == nil {
			continue
		}
		types = append(types, p.annotationType(s, param.ChildByFieldName("type")))
	}
	return types
}

// paramName returns the identifier a parameter binds, or nil for separators.
func paramName(param *sitter.Node) *sitter.Node {
	switch param.Kind() {
	case "identifier":
		return param
	case "default_parameter", "typed_default_parameter":
		return param.ChildByFieldName("name")
	case "typed_parameter", "list_splat_pattern", "dictionary_splat_pattern":
		for i := uint(0); i < param.NamedChildCount(); i++ {
			if name := paramName(param.NamedChild(i)); name != nil {
				return name
			}
		}
	}
	return nil
}

// function walks a def or lambda. Defaults and annotations resolve in the
// enclosing scope; the body resolves in a new function scope.
func (p pythonFrontend) function(s *session, node *sitter.Node) {
	params := node.ChildByFieldName("parameters")
	if params != nil {
		for i := uint(0); i < params.NamedChildCount(); i++ {
			param := params.NamedChild(i)
			p.walk(s, param.ChildByFieldName("value"))
			p.walk(s, param.ChildByFieldName("type"))
		}
	}
	p.walk(s, node.ChildByFieldName("return_type"))

	name := "lambda"
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		name = s.text(nameNode)
	}
	s.open(ScopeFunction, name, int(node.StartPosition().Row)+1, true)
	if params != nil {
		for i := uint(0); i < params.NamedChildCount(); i++ {
			param := params.NamedChild(i)
			if nameNode := paramName(param); nameNode != nil {
				typ := p.annotationType(s, param.ChildByFieldName("type"))
				s.declare(nameNode, s.text(nameNode), symtab.KindVariable, typ, declExclusive)
			}
		}
	}
	body := node.ChildByFieldName("body")
	if node.Kind() == "lambda" {
		p.hoist(s, body)
		p.walk(s, body)
	} else if body != nil {
		p.collectPassthrough(s, body)
		p.hoist(s, body)
		p.statements(s, body)
	}
	s.close()
}

func (p pythonFrontend) class(s *session, node *sitter.Node) {
	p.walk(s, node.ChildByFieldName("superclasses"))
	nameNode := node.ChildByFieldName("name")
	s.open(ScopeClass, s.text(nameNode), int(node.StartPosition().Row)+1, false)
	if body := node.ChildByFieldName("body"); body != nil {
		p.hoist(s, body)
		p.statements(s, body)
	}
	s.close()
}

// comprehension resolves the first iterable outside the new scope, as Python
// evaluates it in the enclosing one.
func (p pythonFrontend) comprehension(s *session, node *sitter.Node) {
	var clauses []*sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == "for_in_clause" || child.Kind() == "if_clause" {
			clauses = append(clauses, child)
		}
	}
	if len(clauses) > 0 && clauses[0].Kind() == "for_in_clause" {
		p.walk(s, clauses[0].ChildByFieldName("right"))
	}

	s.open(ScopeComprehension, strings.TrimSuffix(node.Kind(), "_expression"), int(node.StartPosition().Row)+1, false)
	for i, clause := range clauses {
		if clause.Kind() == "for_in_clause" {
			if i > 0 {
				p.walk(s, clause.ChildByFieldName("right"))
			}
			p.bindTargets(s, clause.ChildByFieldName("left"), nil, nil)
			continue
		}
		p.walk(s, clause)
	}
	p.walk(s, node.ChildByFieldName("body"))
	s.close()
}

// enclosingFrame is the nearest frame that is not a comprehension, where an
// assignment expression inside a comprehension binds.
func (s *session) enclosingFrame() *frame {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].kind != ScopeComprehension {
			return s.frames[i]
		}
	}
	return s.top()
}

// fileFrame is the module scope.
func (s *session) fileFrame() *frame {
	for _, f := range s.frames {
		if f.kind == ScopeFile {
			return f
		}
	}
	return s.top()
}

func (p pythonFrontend) statements(s *session, body *sitter.Node) {
	for i := uint(0); i < body.ChildCount(); i++ {
		p.walk(s, body.Child(i))
	}
}

func (p pythonFrontend) walk(s *session, node *sitter.Node) {
	if node == nil || s.failed() {
		return
	}

	switch node.Kind() {
	case "identifier":
		s.use(node, s.text(node))
		return

	case "function_definition", "lambda":
		p.function(s, node)
		return

	case "class_definition":
		p.class(s, node)
		return

	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		p.comprehension(s, node)
		return

	case "assignment":
		p.walk(s, node.ChildByFieldName("right"))
		p.walk(s, node.ChildByFieldName("type"))
		p.walkTargets(s, node.ChildByFieldName("left"))
		return

	case "augmented_assignment":
		p.walk(s, node.ChildByFieldName("right"))
		p.walk(s, node.ChildByFieldName("left"))
		return

	case "for_statement":
		p.walk(s, node.ChildByFieldName("right"))
		p.walkTargets(s, node.ChildByFieldName("left"))
		p.walk(s, node.ChildByFieldName("body"))
		p.walk(s, node.ChildByFieldName("alternative"))
		return

	case "named_expression":
		p.walk(s, node.ChildByFieldName("value"))
		if f := s.enclosingFrame(); f != s.top() {
			nameNode := node.ChildByFieldName("name")
			s.declareIn(f, nameNode, s.text(nameNode), symtab.KindVariable, symtab.TypeUndefined, 1, declRebind)
		}
		return

	case "as_pattern":
		if node.NamedChildCount() > 0 {
			p.walk(s, node.NamedChild(0))
		}
		return

	case "keyword_argument":
		p.walk(s, node.ChildByFieldName("value"))
		return

	case "attribute":
		p.walk(s, node.ChildByFieldName("object"))
		return

	case "case_pattern":
		p.matchPattern(s, node, false)
		return

	case "import_statement", "import_from_statement", "future_import_statement",
		"global_statement", "nonlocal_statement", "comment":
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		p.walk(s, node.Child(i))
	}
}

// walkTargets resolves the parts of an assignment target that read names,
// such as the object of an attribute or a subscript. Plain names were bound
// by hoist.
func (p pythonFrontend) walkTargets(s *session, target *sitter.Node) {
	if target == nil {
		return
	}
	switch target.Kind() {
	case "identifier":
		return
	case "pattern_list", "tuple_pattern", "list_pattern", "expression_list", "tuple", "list",
		"parenthesized_expression", "list_splat_pattern", "list_splat":
		for i := uint(0); i < target.NamedChildCount(); i++ {
			p.walkTargets(s, target.NamedChild(i))
		}
	default:
		p.walk(s, target)
	}
}
