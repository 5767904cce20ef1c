package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"jsedit/internal/bytemap"
	"jsedit/internal/logging"
	"jsedit/internal/source"
)

// testCallbackCallees are callable names whose function arguments are
// captured as replaceable callback records.
var testCallbackCallees = map[string]bool{
	"describe": true, "test": true, "it": true,
	"beforeEach": true, "afterEach": true, "beforeAll": true, "afterAll": true,
	"context": true, "suite": true, "xdescribe": true, "xit": true,
	"fdescribe": true, "fit": true,
}

// pickLanguage selects the source dialect: JS_EDIT_LANG overrides,
// otherwise the file extension decides.
func pickLanguage(path string) *sitter.Language {
	switch strings.ToLower(os.Getenv("JS_EDIT_LANG")) {
	case "ts", "typescript":
		return typescript.GetLanguage()
	case "js", "javascript":
		return javascript.GetLanguage()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx":
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// Collect walks src's AST once and returns the collected record pool.
func Collect(src *source.Source) (*Pool, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(pickLanguage(src.Path))

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src.Text))
	if err != nil {
		return nil, fmt.Errorf("collector: parse %s: %w", src.Path, err)
	}
	defer tree.Close()

	c := &walker{src: src, content: []byte(src.Text), pool: &Pool{Classes: map[string]*ClassMeta{}}}
	c.walkBody(tree.RootNode(), visitCtx{}, nil)
	logging.CollectorDebug("collected %s: %d functions, %d variables", src.Path, len(c.pool.Functions), len(c.pool.Variables))
	return c.pool, nil
}

// ReParseOK reports whether text parses without syntax errors.
func ReParseOK(path, text string) (bool, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(pickLanguage(path))
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(text))
	if err != nil {
		return false, err
	}
	defer tree.Close()
	return !tree.RootNode().HasError(), nil
}

// visitCtx is the immutable traversal context threaded through the
// walk, copied (not mutated) at each descent so sibling subtrees never
// see each other's scope pushes.
type visitCtx struct {
	scopeChain []ScopeEntry
	enclosing  []EnclosingContext // outer-to-inner; last element is innermost
	exportKind string
	declKind   string // current variable-declaration binding kind
}

func (c visitCtx) pushScope(entry ScopeEntry) visitCtx {
	next := c
	next.scopeChain = append(append([]ScopeEntry{}, c.scopeChain...), entry)
	return next
}

func (c visitCtx) pushEnclosing(e EnclosingContext) visitCtx {
	next := c
	next.enclosing = append(append([]EnclosingContext{}, c.enclosing...), e)
	return next
}

// enclosingStack returns the context stack innermost-first, as stored
// on records.
func (c visitCtx) enclosingStack() []EnclosingContext {
	out := make([]EnclosingContext, len(c.enclosing))
	for i, e := range c.enclosing {
		out[len(c.enclosing)-1-i] = e
	}
	return out
}

type walker struct {
	src     *source.Source
	content []byte
	pool    *Pool
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.content[n.StartByte():n.EndByte()])
}

func (w *walker) span(n *sitter.Node) bytemap.Span {
	return w.src.SpanFromBytes(int(n.StartByte()), int(n.EndByte()))
}

// walkBody iterates the named children of a block-like node (program,
// statement_block, class_body), extending path segments with
// "body[i]".
func (w *walker) walkBody(node *sitter.Node, ctx visitCtx, path []string) {
	n := int(node.NamedChildCount())
	for i := 0; i < n; i++ {
		child := node.NamedChild(i)
		segPath := append(append([]string{}, path...), fmt.Sprintf("body[%d]", i))
		w.walkStatement(child, ctx, segPath)
	}
}

func (w *walker) walkStatement(node *sitter.Node, ctx visitCtx, path []string) {
	switch node.Type() {
	case "export_statement":
		w.walkExportStatement(node, ctx, path)

	case "class_declaration", "class":
		w.collectClass(node, ctx, path, false)

	case "function_declaration", "generator_function_declaration":
		w.collectFunctionDeclaration(node, ctx, path, ExportNone)

	case "lexical_declaration", "variable_declaration":
		w.collectVariableDeclaration(node, ctx, path, ExportNone)

	case "expression_statement":
		if exprN := node.NamedChild(0); exprN != nil {
			w.walkExpression(exprN, ctx, append(path, "expression"))
		}

	default:
		// Recurse into compound statements (blocks, if/for/try bodies) so
		// nested declarations are still captured. The compound statement
		// adds no segment of its own; walkBody gives each of its named
		// children a "body[i]" segment.
		if node.NamedChildCount() > 0 {
			w.walkBody(node, ctx, path)
		}
	}
}

func (w *walker) walkExportStatement(node *sitter.Node, ctx visitCtx, path []string) {
	text := w.text(node)
	isDefault := strings.HasPrefix(strings.TrimSpace(text), "export default")

	decl := node.ChildByFieldName("declaration")
	if decl == nil {
		value := node.ChildByFieldName("value")
		if value != nil && isDefault {
			w.collectDefaultExportExpression(value, ctx, append(path, "declaration"))
		}
		return
	}

	exportKind := ExportNamed
	if isDefault {
		exportKind = ExportDefault
	}

	declPath := append(path, "declaration")
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration":
		w.collectFunctionDeclaration(decl, ctx, declPath, exportKind)
	case "class_declaration", "class":
		w.collectClass(decl, ctx, declPath, exportKind == ExportDefault)
	case "lexical_declaration", "variable_declaration":
		w.collectVariableDeclaration(decl, ctx, declPath, exportKind)
	default:
		if isDefault {
			w.collectDefaultExportExpression(decl, ctx, declPath)
		}
	}
}

// collectDefaultExportExpression handles `export default function(){}` /
// `export default () => {}` / `export default class {}` expression forms.
func (w *walker) collectDefaultExportExpression(node *sitter.Node, ctx visitCtx, path []string) {
	switch node.Type() {
	case "function", "function_expression", "generator_function":
		w.newFunctionRecord(node, "", KindFunctionExpression, ctx, path, ExportDefault, nil)
	case "arrow_function":
		w.newFunctionRecord(node, "", KindArrowFunction, ctx, path, ExportDefault, nil)
	case "class", "class_declaration":
		w.collectClass(node, ctx, path, true)
	}
}

// walkExpression inspects an expression statement for assignment
// targets (module.exports.x = ...) and recognized call-site captures
// (describe(...), it(...), ...), and otherwise recurses.
func (w *walker) walkExpression(node *sitter.Node, ctx visitCtx, path []string) {
	switch node.Type() {
	case "assignment_expression":
		w.collectAssignment(node, ctx, path)
	case "call_expression":
		w.collectCallSite(node, ctx, path)
	}
}

// collectAssignment recognizes `module.exports = expr`,
// `module.exports.foo = expr`, and `exports.foo = expr`.
func (w *walker) collectAssignment(node *sitter.Node, ctx visitCtx, path []string) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil || right == nil {
		return
	}

	chain := memberChain(w, left)
	var scopeOwner, exportKind, varName string
	switch {
	case len(chain) == 2 && chain[0] == "module" && chain[1] == "exports":
		scopeOwner = "module.exports"
		exportKind = ExportCommonJSDefault
		varName = "module.exports"
	case len(chain) == 3 && chain[0] == "module" && chain[1] == "exports":
		scopeOwner = "module.exports"
		exportKind = ExportCommonJSNamed
		varName = chain[2]
	case len(chain) == 2 && chain[0] == "exports":
		scopeOwner = "exports"
		exportKind = ExportCommonJSNamed
		varName = chain[1]
	default:
		return
	}

	rightIsFunction := isFunctionLike(right.Type())

	// An assignment target always yields an assignment-kind variable
	// record, alongside a function record when the right side is a
	// function.
	declSpan := w.span(node)
	scopeChain := []ScopeEntry{{Owner: scopeOwner}}
	vr := &VariableRecord{
		Name:              varName,
		Kind:              VarKindAssignment,
		ExportKind:        exportKind,
		BindingSpan:       w.span(left),
		DeclaratorSpan:    declSpan,
		DeclarationSpan:   declSpan,
		BindingDigest:     w.src.Hash(w.span(left)),
		DeclaratorDigest:  w.src.Hash(declSpan),
		DeclarationDigest: w.src.Hash(declSpan),
		BindingPath:       BuildPathSignature(path, "left"),
		DeclaratorPath:    BuildPathSignature(path, node.Type()),
		DeclarationPath:   BuildPathSignature(path, node.Type()),
		ScopeChain:        scopeChain,
		EnclosingContext:  ctx.enclosingStack(),
		InitializerType:   right.Type(),
	}
	w.pool.Variables = append(w.pool.Variables, vr)

	if rightIsFunction {
		kind := KindFunctionExpression
		if right.Type() == "arrow_function" {
			kind = KindArrowFunction
		}
		name := varName
		if scopeOwner == "module.exports" && exportKind == ExportCommonJSDefault {
			name = "(anonymous)"
		}
		scope := []ScopeEntry{{Owner: scopeOwner}}
		w.newFunctionRecord(right, name, kind, ctx.pushScope(scope[0]), append(path, "right"), exportKind, nil)
	}
}

// collectCallSite recognizes recognized test/spec callback wrappers
// and recurses into their function-literal arguments as nested
// call-site-captured function records.
func (w *walker) collectCallSite(node *sitter.Node, ctx visitCtx, path []string) {
	callee := node.ChildByFieldName("function")
	if callee == nil || callee.Type() != "identifier" {
		return
	}
	name := w.text(callee)
	if !testCallbackCallees[name] {
		return
	}

	args := node.ChildByFieldName("arguments")
	if args == nil {
		return
	}

	label := ""
	var fnArg *sitter.Node
	argCount := int(args.NamedChildCount())
	for i := 0; i < argCount; i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "string":
			label = strings.Trim(w.text(arg), `'"`+"`")
		case "function", "function_expression", "arrow_function", "generator_function":
			fnArg = arg
		}
	}
	if fnArg == nil {
		return
	}

	entry := ScopeEntry{Owner: name, Role: fmt.Sprintf("call:%s:%s", name, label)}
	callCtx := ctx.pushScope(entry).pushEnclosing(EnclosingContext{Kind: "call", Name: name, Span: w.span(node)})

	kind := KindFunctionExpression
	if fnArg.Type() == "arrow_function" {
		kind = KindArrowFunction
	}
	w.newFunctionRecord(fnArg, "(anonymous)", kind, callCtx, append(path, "arguments"), ExportNone, nil)

	// Recurse into the callback body so nested it()/beforeEach() calls
	// under a describe() block are captured too.
	body := fnArg.ChildByFieldName("body")
	if body != nil {
		w.walkBody(body, callCtx, append(path, "arguments", "body"))
	}
}

func isFunctionLike(nodeType string) bool {
	switch nodeType {
	case "function", "function_expression", "arrow_function", "generator_function":
		return true
	default:
		return false
	}
}

// memberChain flattens a (possibly nested) member_expression into its
// dotted identifier parts, e.g. `module.exports.foo` -> ["module",
// "exports", "foo"].
func memberChain(w *walker, node *sitter.Node) []string {
	if node == nil {
		return nil
	}
	if node.Type() == "identifier" {
		return []string{w.text(node)}
	}
	if node.Type() != "member_expression" {
		return nil
	}
	obj := node.ChildByFieldName("object")
	prop := node.ChildByFieldName("property")
	if obj == nil || prop == nil {
		return nil
	}
	return append(memberChain(w, obj), w.text(prop))
}

// collectFunctionDeclaration handles `function name() {}` /
// `function* name() {}`.
func (w *walker) collectFunctionDeclaration(node *sitter.Node, ctx visitCtx, path []string, exportKind string) {
	nameNode := node.ChildByFieldName("name")
	name := "(anonymous)"
	if nameNode != nil {
		name = w.text(nameNode)
	}
	w.newFunctionRecord(node, name, KindFunctionDeclaration, ctx, path, exportKind, nameNode)
}

// collectClass handles class_declaration/class (expression) nodes:
// records a (non-replaceable) class FunctionRecord, registers class
// metadata, and recurses into the class body with the class pushed
// onto the scope chain.
func (w *walker) collectClass(node *sitter.Node, ctx visitCtx, path []string, isDefaultExport bool) {
	nameNode := node.ChildByFieldName("name")
	name := "(anonymous)"
	if nameNode != nil {
		name = w.text(nameNode)
	}

	exportKind := ExportNone
	if isDefaultExport {
		exportKind = ExportDefault
	}

	span := w.span(node)
	rec := &FunctionRecord{
		Span:          span,
		OriginalName:  name,
		Kind:          KindClass,
		ExportKind:    exportKind,
		Replaceable:   false, // classes are locatable, not replaceable
		ScopeChain:    ctx.scopeChain,
		PathSignature: BuildPathSignature(path, node.Type()),
		Digest:        w.src.Hash(span),
		EnclosingContext: ctx.enclosingStack(),
		Line:          int(node.StartPoint().Row) + 1,
		Column:        int(node.StartPoint().Column) + 1,
		ByteLength:    span.ByteEnd - span.ByteStart,
	}
	rec.CanonicalName = CanonicalName(name, rec.ScopeChain, exportKind)
	if nameNode != nil {
		rec.IdentifierSpan = w.span(nameNode)
	}
	w.pool.Functions = append(w.pool.Functions, rec)

	meta := &ClassMeta{Name: name, ConstructorParams: map[string][]ParamProperty{}}
	if super := node.ChildByFieldName("superclass") ; super != nil {
		meta.Superclass = w.text(super)
	}
	w.pool.Classes[name] = meta

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	classCtx := ctx.pushScope(ScopeEntry{Owner: name}).pushEnclosing(EnclosingContext{Kind: "class", Name: name, Span: span})

	n := int(body.NamedChildCount())
	for i := 0; i < n; i++ {
		member := body.NamedChild(i)
		memberPath := append(append([]string{}, path...), "body", fmt.Sprintf("body[%d]", i))
		w.collectClassMember(member, classCtx, memberPath, meta)
	}
}

func (w *walker) collectClassMember(node *sitter.Node, ctx visitCtx, path []string, meta *ClassMeta) {
	switch node.Type() {
	case "method_definition":
		w.collectMethod(node, ctx, path, meta)
	case "public_field_definition", "field_definition":
		w.collectClassField(node, ctx, path)
	}
}

func (w *walker) collectMethod(node *sitter.Node, ctx visitCtx, path []string, meta *ClassMeta) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	isPrivate := strings.HasPrefix(name, "#")
	prefix := w.text(node)
	isStatic := strings.Contains(strings.Fields(prefix)[0], "static") || strings.HasPrefix(strings.TrimSpace(prefix), "static ")
	isGetter := nodeHasLeadingKeyword(w, node, "get")
	isSetter := nodeHasLeadingKeyword(w, node, "set")

	var role string
	switch {
	case isPrivate:
		role = name // already has leading '#'
	case isStatic:
		role = "static " + strings.TrimPrefix(name, "#")
	case isGetter:
		role = "get " + name
	case isSetter:
		role = "set " + name
	default:
		role = name
	}

	owner := ctx.scopeChain[len(ctx.scopeChain)-1].Owner
	methodCtx := visitCtx{
		scopeChain: append(append([]ScopeEntry{}, ctx.scopeChain[:len(ctx.scopeChain)-1]...), ScopeEntry{Owner: owner, Role: role}),
		enclosing:  ctx.enclosing,
	}

	w.newFunctionRecord(node, name, KindClassMethod, methodCtx, path, ExportNone, nameNode)

	if name == "constructor" {
		w.collectConstructorParams(node, meta)
	}
}

func nodeHasLeadingKeyword(w *walker, node *sitter.Node, keyword string) bool {
	n := int(node.ChildCount())
	for i := 0; i < n; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		t := w.text(child)
		if t == keyword {
			return true
		}
		if t == "static" {
			continue
		}
		break
	}
	return false
}

func (w *walker) collectConstructorParams(node *sitter.Node, meta *ClassMeta) {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	var out []ParamProperty
	n := int(params.NamedChildCount())
	for i := 0; i < n; i++ {
		p := params.NamedChild(i)
		text := w.text(p)
		var modifiers []string
		for _, mod := range []string{"public", "private", "protected", "readonly"} {
			if strings.Contains(text, mod+" ") {
				modifiers = append(modifiers, mod)
			}
		}
		if len(modifiers) == 0 {
			continue
		}
		name := text
		if idx := strings.IndexAny(text, ":"); idx >= 0 {
			name = text[:idx]
		}
		for _, mod := range modifiers {
			name = strings.TrimSpace(strings.Replace(name, mod, "", 1))
		}
		out = append(out, ParamProperty{Name: strings.TrimSpace(name), Modifiers: modifiers})
	}
	if len(out) > 0 {
		meta.ConstructorParams["constructor"] = out
	}
}

// collectClassField handles class field declarations (`x = 1;`,
// `private readonly x: number;`) as class-field-kind variable records.
func (w *walker) collectClassField(node *sitter.Node, ctx visitCtx, path []string) {
	nameNode := node.ChildByFieldName("property")
	if nameNode == nil {
		nameNode = node.ChildByFieldName("name")
	}
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	span := w.span(node)
	vr := &VariableRecord{
		Name:              name,
		Kind:              VarKindClassField,
		ExportKind:        ExportNone,
		BindingSpan:       w.span(nameNode),
		DeclaratorSpan:    span,
		DeclarationSpan:   span,
		BindingDigest:     w.src.Hash(w.span(nameNode)),
		DeclaratorDigest:  w.src.Hash(span),
		DeclarationDigest: w.src.Hash(span),
		BindingPath:       BuildPathSignature(path, "property_identifier"),
		DeclaratorPath:    BuildPathSignature(path, node.Type()),
		DeclarationPath:   BuildPathSignature(path, node.Type()),
		ScopeChain:        ctx.scopeChain,
		EnclosingContext:  ctx.enclosingStack(),
	}
	w.pool.Variables = append(w.pool.Variables, vr)
}

// collectVariableDeclaration handles `var|let|const name = init, ...;`
// creating one VariableRecord per declarator (one per destructured
// identifier for patterns), and a companion FunctionRecord for any
// declarator whose initializer is a function/arrow expression.
func (w *walker) collectVariableDeclaration(node *sitter.Node, ctx visitCtx, path []string, exportKind string) {
	kind := VarKindVar
	if strings.Contains(w.text(node), "const") {
		kind = VarKindConst
	} else if strings.HasPrefix(strings.TrimSpace(w.text(node)), "let") {
		kind = VarKindLet
	}

	declSpan := w.span(node)
	declPath := BuildPathSignature(path, node.Type())
	declDigest := w.src.Hash(declSpan)

	n := int(node.NamedChildCount())
	for i := 0; i < n; i++ {
		declarator := node.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		declaratorPath := append(append([]string{}, path...), fmt.Sprintf("declarations[%d]", i))
		w.collectDeclarator(declarator, ctx, declaratorPath, kind, exportKind, declSpan, declPath, declDigest)
	}
}

func (w *walker) collectDeclarator(node *sitter.Node, ctx visitCtx, path []string, kind, exportKind string, declSpan bytemap.Span, declPath, declDigest string) {
	nameNode := node.ChildByFieldName("name")
	valueNode := node.ChildByFieldName("value")
	if nameNode == nil {
		return
	}

	bindings := destructureIdentifiers(w, nameNode)
	declaratorSpan := w.span(node)
	declaratorPath := BuildPathSignature(path, node.Type())
	declaratorDigest := w.src.Hash(declaratorSpan)

	for _, b := range bindings {
		vr := &VariableRecord{
			Name:              b.name,
			Kind:              kind,
			ExportKind:        exportKind,
			BindingSpan:       b.span,
			DeclaratorSpan:    declaratorSpan,
			DeclarationSpan:   declSpan,
			BindingDigest:     w.src.Hash(b.span),
			DeclaratorDigest:  declaratorDigest,
			DeclarationDigest: declDigest,
			BindingPath:       BuildPathSignature(path, "identifier"),
			DeclaratorPath:    declaratorPath,
			DeclarationPath:   declPath,
			ScopeChain:        ctx.scopeChain,
			EnclosingContext:  ctx.enclosingStack(),
		}
		if valueNode != nil {
			vr.InitializerType = valueNode.Type()
		}
		w.pool.Variables = append(w.pool.Variables, vr)
	}

	if valueNode != nil && isFunctionLike(valueNode.Type()) && len(bindings) == 1 {
		name := bindings[0].name
		fnKind := KindFunctionExpression
		if valueNode.Type() == "arrow_function" {
			fnKind = KindArrowFunction
		}
		w.newFunctionRecord(valueNode, name, fnKind, ctx, append(path, "value"), exportKind, nil)
	}
}

type binding struct {
	name string
	span bytemap.Span
}

// destructureIdentifiers extracts one binding per identifier in a
// (possibly destructuring) declarator name pattern.
func destructureIdentifiers(w *walker, node *sitter.Node) []binding {
	switch node.Type() {
	case "identifier":
		return []binding{{name: w.text(node), span: w.span(node)}}
	case "object_pattern", "array_pattern":
		var out []binding
		n := int(node.NamedChildCount())
		for i := 0; i < n; i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "shorthand_property_identifier_pattern", "identifier":
				out = append(out, binding{name: w.text(child), span: w.span(child)})
			case "pair_pattern":
				value := child.ChildByFieldName("value")
				if value != nil {
					out = append(out, destructureIdentifiers(w, value)...)
				}
			default:
				out = append(out, destructureIdentifiers(w, child)...)
			}
		}
		return out
	default:
		return nil
	}
}

// newFunctionRecord builds and appends a FunctionRecord for a
// function/arrow/method node captured at a replaceable site.
func (w *walker) newFunctionRecord(node *sitter.Node, name, kind string, ctx visitCtx, path []string, exportKind string, identNode *sitter.Node) {
	if name == "" {
		name = "(anonymous)"
	}
	span := w.span(node)
	rec := &FunctionRecord{
		Span:             span,
		OriginalName:     name,
		Kind:             kind,
		ExportKind:       exportKind,
		Replaceable:      true,
		ScopeChain:       ctx.scopeChain,
		PathSignature:    BuildPathSignature(path, node.Type()),
		Digest:           w.src.Hash(span),
		EnclosingContext: ctx.enclosingStack(),
		Line:             int(node.StartPoint().Row) + 1,
		Column:           int(node.StartPoint().Column) + 1,
		ByteLength:       span.ByteEnd - span.ByteStart,
	}
	rec.CanonicalName = CanonicalName(name, rec.ScopeChain, exportKind)
	if identNode != nil {
		rec.IdentifierSpan = w.span(identNode)
	} else if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		rec.IdentifierSpan = w.span(nameNode)
	}
	w.pool.Functions = append(w.pool.Functions, rec)
}
