package codegen

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/lyn-lang/lyn/internal/ast"
)

func TestEmitProgramIdentity(t *testing.T) {
	g := testGen(listAdts())
	g.EmitProgram(testModule(listAdts(), mainBinding()))

	wrapper := findFunc(g.Module, "main")
	if wrapper == nil {
		t.Fatalf("no entry wrapper named main")
	}
	if !wrapper.Sig.RetType.Equal(types.I32) {
		t.Errorf("entry wrapper returns %v, want i32", wrapper.Sig.RetType)
	}
	if len(wrapper.Blocks) == 0 {
		t.Fatalf("entry wrapper has no body")
	}
	ret, isRet := wrapper.Blocks[len(wrapper.Blocks)-1].Term.(*ir.TermRet)
	if !isRet {
		t.Fatalf("entry wrapper does not end in ret")
	}
	c, isConst := ret.X.(*constant.Int)
	if !isConst || c.X.Int64() != 0 {
		t.Errorf("entry wrapper returns %v, want 0", ret.X)
	}

	// The wrapper claimed the name, so the user main was renamed.
	if findFunc(g.Module, "main.1") == nil {
		t.Errorf("user main function not emitted alongside the wrapper")
	}
}

func TestEmitProgramGlobalVarInit(t *testing.T) {
	// (define x (add (cons 2 3))) with x : Int32.
	addApp := ast.App{
		Func: variable("add", ast.TBinop(tInt32)),
		Arg: ast.Cons{
			Car: num("2", tInt32),
			Cdr: num("3", tInt32),
			Typ: ast.TCons(tInt32, tInt32),
		},
		Typ: tInt32,
	}
	x := &ast.Binding{Ident: id("x"), Sig: tInt32, Val: addApp}

	g := testGen(listAdts())
	g.EmitProgram(testModule(listAdts(), x, mainBinding()))

	var xGlobal *ir.Global
	for _, gl := range g.Module.Globals {
		if gl.Name() == "x" {
			xGlobal = gl
		}
	}
	if xGlobal == nil {
		t.Fatalf("no global variable x")
	}
	if _, isUndef := xGlobal.Init.(*constant.Undef); !isUndef {
		t.Errorf("global x declared with initializer %v, want undef", xGlobal.Init)
	}

	wrapper := findFunc(g.Module, "main")
	stored := false
	for _, b := range wrapper.Blocks {
		for _, inst := range b.Insts {
			if st, isStore := inst.(*ir.InstStore); isStore && st.Dst == xGlobal {
				stored = true
			}
		}
	}
	if !stored {
		t.Errorf("entry wrapper does not initialize global x")
	}
}

func TestEmitProgramMutualRecursion(t *testing.T) {
	// Two let-bound closures that capture each other; resolvable only
	// with the two-phase scheme.
	evenType := ast.TFunc(tInt64, tBool)
	even := &ast.Binding{
		Ident: id("even?"),
		Sig:   evenType,
		Val: ast.Lambda{
			ParamIdent: id("n"),
			Body:       ast.App{Func: variable("odd?", evenType), Arg: variable("n", tInt64), Typ: tBool},
			Typ:        evenType,
		},
	}
	odd := &ast.Binding{
		Ident: id("odd?"),
		Sig:   evenType,
		Val: ast.Lambda{
			ParamIdent: id("n"),
			Body:       ast.App{Func: variable("even?", evenType), Arg: variable("n", tInt64), Typ: tBool},
			Typ:        evenType,
		},
	}
	result := &ast.Binding{
		Ident: id("result"),
		Sig:   tBool,
		Val: ast.Let{
			Bindings: &ast.Group{List: []*ast.Binding{even, odd}},
			Body:     ast.App{Func: variable("even?", evenType), Arg: num("4", tInt64), Typ: tBool},
			Typ:      tBool,
		},
	}

	g := testGen(listAdts())
	g.EmitProgram(testModule(listAdts(), result, mainBinding()))

	if findFunc(g.Module, "lambda_main_even?") == nil || findFunc(g.Module, "lambda_main_odd?") == nil {
		t.Errorf("mutually recursive closures were not both emitted")
	}
}

func TestBindingsPhaseAVisibility(t *testing.T) {
	g := testGen(listAdts())
	env := testEnv(g)
	fb := hostFn(g)

	fType := ast.TFunc(tNil, tNil)
	f := &ast.Binding{
		Ident: id("f"),
		Sig:   fType,
		Val: ast.Lambda{
			ParamIdent: id("x"),
			Body:       ast.App{Func: variable("g", fType), Arg: variable("x", tNil), Typ: tNil},
			Typ:        fType,
		},
	}
	gBind := &ast.Binding{
		Ident: id("g"),
		Sig:   fType,
		Val: ast.Lambda{
			ParamIdent: id("x"),
			Body:       ast.App{Func: variable("f", fType), Arg: variable("x", tNil), Typ: tNil},
			Typ:        fType,
		},
	}
	g.genBindings(env, fb, []*ast.Binding{f, gBind})

	for _, name := range []string{"f", "g"} {
		if _, ok := env.Get(name, nil); !ok {
			t.Errorf("binding %s not resolvable after genBindings", name)
		}
	}
}

func TestDirectCallPredicate(t *testing.T) {
	g := testGen(listAdts())
	env := testEnv(g)
	g.genCoreFuncs(env)
	fb := hostFn(g)

	fType := ast.TFunc(tNil, tNil)
	f := g.genFuncDecl("f", fType)
	env.AddGlobalMono("f", GlobFunc{Func: f, Closure: g.genWrappingClosure(f, "f", fType)})

	direct := g.genApp(env, fb, ast.App{
		Func: variable("f", fType),
		Arg:  ast.Nil{},
		Typ:  tNil,
	})
	call, isCall := direct.(*ir.InstCall)
	if !isCall {
		t.Fatalf("application lowered to %T, want a call", direct)
	}
	if len(call.Args) != 1 {
		t.Errorf("direct call has %d args, want 1 (no captures)", len(call.Args))
	}
	if call.Callee != f {
		t.Errorf("direct call does not target the naked function")
	}

	indirect := g.genApp(env, fb, ast.App{
		Func: variable("add", ast.TBinop(tInt32)),
		Arg: ast.Cons{
			Car: num("2", tInt32),
			Cdr: num("3", tInt32),
			Typ: ast.TCons(tInt32, tInt32),
		},
		Typ: tInt32,
	})
	icall, isCall := indirect.(*ir.InstCall)
	if !isCall {
		t.Fatalf("primitive application lowered to %T, want a call", indirect)
	}
	if len(icall.Args) != 2 {
		t.Errorf("primitive call has %d args, want captures plus argument", len(icall.Args))
	}
}

func TestPrimitiveRewrite(t *testing.T) {
	g := testGen(listAdts())
	env := NewEnv()
	g.genCoreFuncs(env)
	fb := hostFn(g)

	generic := g.genExpr(env, fb, ast.Variable{
		Ident: id("add"),
		Typ:   ast.TScheme{Args: []ast.Type{tInt32}, Body: ast.TBinop(tInt32)},
	}, "")
	specialized := g.genExpr(env, fb, variable("add-Int32", ast.TBinop(tInt32)), "")

	gl, isLoad := generic.(*ir.InstLoad)
	sl, isLoad2 := specialized.(*ir.InstLoad)
	if !isLoad || !isLoad2 {
		t.Fatalf("primitive references lowered to %T and %T, want closure loads", generic, specialized)
	}
	if gl.Src != sl.Src {
		t.Errorf("add at Int32 and add-Int32 load different closures")
	}
}

func TestPrimitiveRewriteVarDefaultsToInt64(t *testing.T) {
	g := testGen(listAdts())
	env := NewEnv()
	g.genCoreFuncs(env)
	fb := hostFn(g)

	tv := ast.TVar{ID: 0}
	v := g.genExpr(env, fb, ast.Variable{Ident: id("add"), Typ: ast.TBinop(tv)}, "")
	load, isLoad := v.(*ir.InstLoad)
	if !isLoad {
		t.Fatalf("primitive reference lowered to %T", v)
	}
	want, _ := env.GetGlobalMono("add-Int64")
	if load.Src != want.(GlobFunc).Closure {
		t.Errorf("still-polymorphic primitive did not collapse to Int64")
	}
}

func TestMatchCaseOrderAndDefaultPanic(t *testing.T) {
	g := testGen(pairAdts())
	env := testEnv(g)
	fb := hostFn(g)

	m := ast.Match{
		Expr: ast.New{Constr: id("Circle"), Members: []ast.Expr{num("1", tInt32)}, Typ: ast.TConst{Name: "Shape"}},
		Cases: []ast.Case{
			{
				Patt: ast.PatDeconstr{Constr: id("Circle"), Subpatts: []ast.Pattern{
					ast.PatVariable{Ident: id("r"), Typ: tInt32},
				}},
				Body: variable("r", tInt32),
			},
			{
				Patt: ast.PatDeconstr{Constr: id("Rect"), Subpatts: []ast.Pattern{
					ast.PatVariable{Ident: id("w"), Typ: tInt32},
					ast.PatVariable{Ident: id("h"), Typ: tInt32},
				}},
				Body: variable("w", tInt32),
			},
		},
		Typ: tInt32,
		Pos: ast.SrcPos{File: "test.lyn", Line: 3, Col: 1},
	}
	v := g.genMatch(env, fb, m)
	phi, isPhi := v.(*ir.InstPhi)
	if !isPhi {
		t.Fatalf("match lowered to %T, want a phi", v)
	}
	if len(phi.Incs) != 3 {
		t.Errorf("phi has %d incomings, want one per case plus default", len(phi.Incs))
	}

	blocks := make(map[string]*ir.Block)
	for _, b := range fb.f.Blocks {
		blocks[b.Name()] = b
	}
	for _, name := range []string{"case", "case.1", "case_default", "case_final"} {
		if blocks[name] == nil {
			t.Fatalf("missing block %s", name)
		}
	}

	// The first case tests its own tag and falls through to the second
	// case, which falls through to the default.
	cond1, ok := blocks["case"].Term.(*ir.TermCondBr)
	if !ok || cond1.TargetFalse != blocks["case.1"] {
		t.Errorf("first case does not fall through to the second case")
	}
	cond2, ok := blocks["case.1"].Term.(*ir.TermCondBr)
	if !ok || cond2.TargetFalse != blocks["case_default"] {
		t.Errorf("second case does not fall through to the default")
	}

	// The default case panics with the non-exhaustive-patterns code.
	panicGlob, _ := env.GetGlobalMono("_panic")
	panicked := false
	for _, inst := range blocks["case_default"].Insts {
		if call, isCall := inst.(*ir.InstCall); isCall && call.Callee == panicGlob.(GlobFunc).Func {
			panicked = true
		}
	}
	if !panicked {
		t.Errorf("default case does not call _panic")
	}
	foundMsg := false
	for _, gl := range g.Module.Globals {
		if arr, isArr := gl.Init.(*constant.CharArray); isArr {
			if strings.Contains(string(arr.X), "RUNTIME-0") &&
				strings.Contains(string(arr.X), "Non-exhaustive patterns") {
				foundMsg = true
			}
		}
	}
	if !foundMsg {
		t.Errorf("no RUNTIME-0 non-exhaustive-patterns message in the module")
	}
}

func TestNewRecursiveAdt(t *testing.T) {
	g := testGen(listAdts())
	env := testEnv(g)
	fb := hostFn(g)

	listT := ast.TConst{Name: "List", Inst: []ast.Type{tInt32}}
	v := g.genNew(env, fb, ast.New{
		Constr: id("Cons1"),
		Members: []ast.Expr{
			num("1", tInt32),
			ast.New{Constr: id("Nil1"), Typ: listT},
		},
		Typ: listT,
	})

	ptr, isPtr := v.Type().(*types.PointerType)
	if !isPtr {
		t.Fatalf("recursive ADT value has type %v, want a pointer", v.Type())
	}
	rcStruct, isStruct := ptr.ElemType.(*types.StructType)
	if !isStruct || len(rcStruct.Fields) != 2 || !rcStruct.Fields[0].Equal(types.I64) {
		t.Fatalf("recursive ADT value is not behind an RC pointer: %v", ptr.ElemType)
	}
	inner, cached := g.named.adtsInner[adtKey("List", []ast.Type{tInt32})]
	if !cached {
		t.Fatalf("recursive ADT inner type not cached")
	}
	if rcStruct.Fields[1] != inner {
		t.Errorf("RC payload is %v, want the cached inner struct", rcStruct.Fields[1])
	}
	if len(inner.Fields) != 2 || !inner.Fields[0].Equal(types.I16) {
		t.Errorf("inner struct is %v, want {i16 tag, payload}", inner)
	}
	// The Cons1 payload holds the element and a pointer to the next cell.
	payload, isStruct := inner.Fields[1].(*types.StructType)
	if !isStruct || len(payload.Fields) != 2 {
		t.Fatalf("largest variant payload is %v", inner.Fields[1])
	}
	if !payload.Fields[0].Equal(types.I32) {
		t.Errorf("payload head is %v, want i32", payload.Fields[0])
	}
	if _, tailIsPtr := payload.Fields[1].(*types.PointerType); !tailIsPtr {
		t.Errorf("payload tail is %v, want a pointer to the next cell", payload.Fields[1])
	}
}

func TestCastOpcodes(t *testing.T) {
	g := testGen(listAdts())
	env := NewEnv()
	fb := hostFn(g)

	tests := []struct {
		name string
		cast ast.Cast
		want string
	}{
		{
			name: "sign extend Int32 to Int64",
			cast: ast.Cast{Expr: num("-42", tInt32), To: tInt64},
			want: "*ir.InstSExt",
		},
		{
			name: "truncate Int64 to Int8",
			cast: ast.Cast{Expr: num("1000", tInt64), To: tInt8},
			want: "*ir.InstTrunc",
		},
		{
			name: "zero extend UInt8 to Int64",
			cast: ast.Cast{Expr: num("200", tUInt8), To: tInt64},
			want: "*ir.InstZExt",
		},
		{
			name: "float to signed int truncates toward zero",
			cast: ast.Cast{Expr: num("3.5", tFloat32), To: tInt32},
			want: "*ir.InstFPToSI",
		},
		{
			name: "unsigned int to float",
			cast: ast.Cast{Expr: num("7", tUInt8), To: tFloat32},
			want: "*ir.InstUIToFP",
		},
		{
			name: "float widening",
			cast: ast.Cast{Expr: num("1.5", tFloat32), To: ast.TConst{Name: "Float64"}},
			want: "*ir.InstFPExt",
		},
		{
			name: "same width signed is a no-op",
			cast: ast.Cast{Expr: num("1", tInt32), To: tInt32},
			want: "*constant.Int",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := g.genCast(env, fb, tt.cast)
			if got := typeName(v); got != tt.want {
				t.Errorf("cast lowered to %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case *ir.InstSExt:
		return "*ir.InstSExt"
	case *ir.InstZExt:
		return "*ir.InstZExt"
	case *ir.InstTrunc:
		return "*ir.InstTrunc"
	case *ir.InstSIToFP:
		return "*ir.InstSIToFP"
	case *ir.InstUIToFP:
		return "*ir.InstUIToFP"
	case *ir.InstFPToSI:
		return "*ir.InstFPToSI"
	case *ir.InstFPToUI:
		return "*ir.InstFPToUI"
	case *ir.InstFPExt:
		return "*ir.InstFPExt"
	case *ir.InstFPTrunc:
		return "*ir.InstFPTrunc"
	case *constant.Int:
		return "*constant.Int"
	}
	return "unknown"
}

func TestIfPhiUsesFinalBlocks(t *testing.T) {
	g := testGen(listAdts())
	env := NewEnv()
	fb := hostFn(g)

	// The then-arm holds a nested if, so its phi edge must come from the
	// nested join block rather than the arm entry.
	nested := ast.If{
		Predicate:   ast.Bool{Val: true},
		Consequent:  num("1", tInt32),
		Alternative: num("2", tInt32),
		Typ:         tInt32,
	}
	outer := ast.If{
		Predicate:   ast.Bool{Val: false},
		Consequent:  nested,
		Alternative: num("3", tInt32),
		Typ:         tInt32,
	}
	v := g.genIf(env, fb, outer)
	phi, isPhi := v.(*ir.InstPhi)
	if !isPhi {
		t.Fatalf("if lowered to %T", v)
	}
	if len(phi.Incs) != 2 {
		t.Fatalf("phi has %d incomings", len(phi.Incs))
	}
	// The outer if claims cond_then/cond_else/cond_next; the nested one
	// gets the .1-suffixed names, and its join is where the then edge
	// must originate.
	thenEdge, isBlock := phi.Incs[0].Pred.(*ir.Block)
	if !isBlock {
		t.Fatalf("then edge pred is %T, want *ir.Block", phi.Incs[0].Pred)
	}
	if thenEdge.Name() != "cond_next.1" {
		t.Errorf("then edge comes from %s, want the nested join block cond_next.1", thenEdge.Name())
	}
}

func TestGlobalFunctionClosureWrapper(t *testing.T) {
	g := testGen(listAdts())
	g.EmitProgram(testModule(listAdts(), mainBinding()))

	if findFunc(g.Module, "closure_func_main") == nil {
		t.Errorf("user main has no dummy closure wrapper")
	}
	found := false
	for _, gl := range g.Module.Globals {
		if gl.Name() == "closure_main" {
			found = true
		}
	}
	if !found {
		t.Errorf("user main has no closure constant")
	}
}
