package glue

import (
	"github.com/crander/idlglue/internal/binding"
	"github.com/crander/idlglue/internal/cpputil"
	"github.com/crander/idlglue/internal/cppwriter"
	"github.com/crander/idlglue/internal/idl"
	"github.com/crander/idlglue/internal/naming"
)

// tableEntry is one row of an identifier table: the index constant and the
// scripting-host name it guards.
type tableEntry struct {
	Const string
	Name  string
}

// objectContext carries the generation state for one exposed object, class or
// namespace. Its sections live in the writers of the file where the object
// was first seen; namespace fragments from later files keep appending to the
// same sections through the shared context.
type objectContext struct {
	defn    *idl.Definition
	global  *idl.Definition
	nsParts []string
	fullNS  string

	isClass   bool
	byPointer bool
	hasCtors  bool

	headerW *cppwriter.Writer
	cppW    *cppwriter.Writer
	cppSec  *cppwriter.Section

	identifiers    *cppwriter.Section
	userGlue       *cppwriter.Section
	lifecycle      *cppwriter.Section
	userGlueProtos map[string]bool

	invokeBody       *cppwriter.Section
	getBody          *cppwriter.Section
	setBody          *cppwriter.Section
	staticInvokeBody *cppwriter.Section
	staticGetBody    *cppwriter.Section
	staticSetBody    *cppwriter.Section
	constructBody    *cppwriter.Section

	methods          []tableEntry
	properties       []tableEntry
	staticMethods    []tableEntry
	staticProperties []tableEntry
	methodIDs        map[string]string
	propertyIDs      map[string]string
	staticMethodIDs  map[string]string
	staticPropIDs    map[string]string
}

// hasConstructors reports whether the class declares at least one exposed
// constructor, so the skeleton can wire the construct slot up front.
func hasConstructors(defn *idl.Definition) bool {
	for _, m := range defn.Members {
		if m.IsConstructor() && !skipMember(m) {
			return true
		}
	}
	return false
}

// newObjectContext builds the context for defn and emits its skeleton into
// the given writers: the glue declarations in the header, and in the
// implementation the identifier-table placeholder, the dispatch shells with
// their embedded body sections, and the lifecycle placeholder filled during
// pass 2.
func newObjectContext(global, defn *idl.Definition, headerW, cppW *cppwriter.Writer) (*objectContext, error) {
	ctx := &objectContext{
		defn:            defn,
		global:          global,
		nsParts:         cpputil.GlueNamespaceParts(defn),
		isClass:         defn.Kind == idl.KindClass,
		headerW:         headerW,
		cppW:            cppW,
		methodIDs:       map[string]string{},
		propertyIDs:     map[string]string{},
		staticMethodIDs: map[string]string{},
		staticPropIDs:   map[string]string{},
	}
	ctx.fullNS = cpputil.GlueFullNamespace(defn)
	if ctx.isClass {
		ctx.byPointer = defn.Binding != nil && defn.Binding.BindingName() == "by_pointer"
		ctx.hasCtors = hasConstructors(defn)
	}
	if err := ctx.emitHeaderSkeleton(); err != nil {
		return nil, err
	}
	if err := ctx.emitCppSkeleton(); err != nil {
		return nil, err
	}
	return ctx, nil
}

func (ctx *objectContext) className() string {
	return cpputil.ScopedName(ctx.global, ctx.defn)
}

func (ctx *objectContext) baseGlueNS() (string, error) {
	if !ctx.isClass {
		return "", nil
	}
	base, err := ctx.defn.BaseSafe()
	if err != nil || base == nil {
		return "", err
	}
	return "::" + cpputil.GlueFullNamespace(base), nil
}

func (ctx *objectContext) emitHeaderSkeleton() error {
	sec := ctx.headerW.CreateSection(ctx.fullNS)
	for _, part := range ctx.nsParts {
		sec.PushNamespace(part)
	}
	if ctx.isClass {
		model, err := binding.Of(ctx.defn)
		if err != nil {
			return err
		}
		glueHeader, err := model.NpapiBindingGlueHeader(ctx.global, ctx.defn)
		if err != nil {
			return err
		}
		_, needDefn, err := model.CppMemberString(ctx.global, ctx.defn)
		if err != nil {
			return err
		}
		sec.NeedType(ctx.defn, needDefn)
		sec.EmitCode(glueHeader)
		decls, err := renderTemplate(tmplInstanceDecls, map[string]any{
			"Class": ctx.className(),
		})
		if err != nil {
			return err
		}
		sec.EmitCode(decls)
	}
	staticDecls, err := renderTemplate(tmplStaticDecls, nil)
	if err != nil {
		return err
	}
	sec.EmitCode(staticDecls)
	return nil
}

func (ctx *objectContext) emitCppSkeleton() error {
	sec := ctx.cppW.CreateSection(ctx.fullNS)
	ctx.cppSec = sec
	for _, part := range ctx.nsParts {
		sec.PushNamespace(part)
	}
	ctx.identifiers = sec.CreateSection("Identifiers")
	ctx.userGlue = sec.CreateSection("UserGlue")
	baseNS, err := ctx.baseGlueNS()
	if err != nil {
		return err
	}
	if ctx.isClass {
		shells, err := renderTemplate(tmplInstanceShells, map[string]any{
			"Class":         ctx.className(),
			"Base":          baseNS,
			"QualifiedName": ctx.defn.QualifiedName(),
		})
		if err != nil {
			return err
		}
		sec.EmitTemplate(shells)
		ctx.invokeBody = sec.GetSection("InvokeBody")
		ctx.getBody = sec.GetSection("GetPropertyBody")
		ctx.setBody = sec.GetSection("SetPropertyBody")
		sec.NeedDefinition(ctx.defn)
	}
	staticShells, err := renderTemplate(tmplStaticShells, map[string]any{
		"QualifiedName":   ctx.qualifiedName(),
		"HasConstructors": ctx.hasCtors,
	})
	if err != nil {
		return err
	}
	sec.EmitTemplate(staticShells)
	ctx.staticInvokeBody = sec.GetSection("StaticInvokeBody")
	ctx.staticGetBody = sec.GetSection("StaticGetPropertyBody")
	ctx.staticSetBody = sec.GetSection("StaticSetPropertyBody")
	ctx.constructBody = sec.GetSection("StaticConstructBody")
	ctx.lifecycle = sec.CreateSection("Lifecycle")
	return nil
}

// qualifiedName is the host-visible name used in generated error messages.
func (ctx *objectContext) qualifiedName() string {
	if name := ctx.defn.QualifiedName(); name != "" {
		return name
	}
	return "<global>"
}

func appendEntry(entries []tableEntry, ids map[string]string, jsName, suffix string) ([]tableEntry, string) {
	if c, ok := ids[jsName]; ok {
		return entries, c
	}
	c := "k" + naming.Normalize(jsName, naming.Capitalized) + suffix
	ids[jsName] = c
	return append(entries, tableEntry{Const: c, Name: jsName}), c
}

// methodConst interns jsName in the instance method table and returns its
// index constant. Overloads share one entry.
func (ctx *objectContext) methodConst(jsName string) string {
	var c string
	ctx.methods, c = appendEntry(ctx.methods, ctx.methodIDs, jsName, "Method")
	return c
}

func (ctx *objectContext) propertyConst(jsName string) string {
	var c string
	ctx.properties, c = appendEntry(ctx.properties, ctx.propertyIDs, jsName, "Property")
	return c
}

func (ctx *objectContext) staticMethodConst(jsName string) string {
	var c string
	ctx.staticMethods, c = appendEntry(ctx.staticMethods, ctx.staticMethodIDs, jsName, "StaticMethod")
	return c
}

func (ctx *objectContext) staticPropertyConst(jsName string) string {
	var c string
	ctx.staticProperties, c = appendEntry(ctx.staticProperties, ctx.staticPropIDs, jsName, "StaticProperty")
	return c
}

// finalize emits everything that had to wait until the object's complete
// member list is known: the identifier tables into their placeholder section,
// and the lifecycle functions. Called once per logical object during pass 2.
func (ctx *objectContext) finalize() error {
	if ctx.isClass {
		if err := ctx.emitTable("method", "kMethodCount", ctx.methods); err != nil {
			return err
		}
		if err := ctx.emitTable("property", "kPropertyCount", ctx.properties); err != nil {
			return err
		}
	}
	if err := ctx.emitTable("static_method", "kStaticMethodCount", ctx.staticMethods); err != nil {
		return err
	}
	if err := ctx.emitTable("static_property", "kStaticPropertyCount", ctx.staticProperties); err != nil {
		return err
	}

	if ctx.isClass {
		model, err := binding.Of(ctx.defn)
		if err != nil {
			return err
		}
		unwrap, _, err := model.NpapiDispatchFunctionHeader(ctx.global, ctx.defn, "object", "npp", "success")
		if err != nil {
			return err
		}
		life, err := renderTemplate(tmplInstanceLife, map[string]any{
			"ByPointer":     ctx.byPointer,
			"Unwrap":        unwrap,
			"QualifiedName": ctx.qualifiedName(),
		})
		if err != nil {
			return err
		}
		ctx.lifecycle.EmitTemplate(life)
		glueCpp, err := model.NpapiBindingGlueCpp(ctx.global, ctx.defn)
		if err != nil {
			return err
		}
		ctx.lifecycle.EmitCode(glueCpp)
	}

	baseNS, err := ctx.baseGlueNS()
	if err != nil {
		return err
	}
	staticLife, err := renderTemplate(tmplStaticLife, map[string]any{
		"HasMethods":          ctx.isClass && len(ctx.methods) > 0,
		"HasProperties":       ctx.isClass && len(ctx.properties) > 0,
		"HasStaticMethods":    len(ctx.staticMethods) > 0,
		"HasStaticProperties": len(ctx.staticProperties) > 0,
		"BaseNS":              baseNS,
	})
	if err != nil {
		return err
	}
	ctx.lifecycle.EmitTemplate(staticLife)
	return nil
}

func (ctx *objectContext) emitTable(prefix, countConst string, entries []tableEntry) error {
	text, err := renderTemplate(tmplIdentifierTables, map[string]any{
		"Prefix":     prefix,
		"CountConst": countConst,
		"Entries":    entries,
	})
	if err != nil {
		return err
	}
	ctx.identifiers.EmitCode(text)
	return nil
}
