package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lyn-lang/lyn/internal/ast"
	"github.com/lyn-lang/lyn/internal/errors"
)

// genTuple lowers an expression list to a right-nested pair chain, or the
// unit value for an empty list. ADT variant payloads use this layout.
func (g *Generator) genTuple(env *Env, fb *fn, es []ast.Expr) value.Value {
	if len(es) == 0 {
		return g.newNilVal()
	}
	acc := fb.setName(g.genExpr(env, fb, es[len(es)-1], ""), "tuple-last")
	for i := len(es) - 2; i >= 0; i-- {
		car := g.genExpr(env, fb, es[i], "tuple-car")
		acc = fb.setName(g.buildStruct(fb, car, acc), "tuple-cons")
	}
	return acc
}

// genNew lowers an ADT construction: the members become the variant
// payload, widened to the ADT's largest-variant type and tagged with the
// variant index. Recursive ADTs additionally move behind an RC pointer.
func (g *Generator) genNew(env *Env, fb *fn, n ast.New) value.Value {
	variant := n.Constr.S
	def, ok := g.adts.ParentAdtOfVariant(variant)
	if !ok {
		panic(ice("no parent ADT of variant `%s` in genNew", variant))
	}
	i, ok := def.VariantIndex(variant)
	if !ok {
		panic(ice("no variant index of `%s` in genNew", variant))
	}
	tag := constant.NewInt(types.I16, int64(i))
	adtInst := ast.GetAdtInstArgs(n.Typ)
	largest := g.genLargestAdtVariantType(def, adtInst)
	unwrapped := fb.setName(g.genTuple(env, fb, n.Members), "new-unwrapped")
	unwrappedLargest := fb.setName(g.buildSizeCast(fb, unwrapped, largest), "new-unwrapped-largest")

	if g.adts.AdtIsRecursive(def) {
		g.genOrCacheAdt(def.Name.S, adtInst)
		inner, ok := g.named.adtsInner[adtKey(def.Name.S, adtInst)]
		if !ok {
			panic(ice("no inner type of recursive ADT `%s` at inst [%s] in genNew",
				def.Name.S, ast.KeyOf(adtInst)))
		}
		wrapped := fb.setName(g.buildStructOfType(fb, []value.Value{tag, unwrappedLargest}, inner), "new-wrapped")
		return fb.setName(g.buildRC(fb, env, wrapped), "new-wrapped-rc")
	}
	adtType := g.genOrCacheAdt(def.Name.S, adtInst)
	return fb.setName(g.buildStructOfType(fb, []value.Value{tag, unwrappedLargest}, adtType), "new-wrapped")
}

// buildOfVariant tests whether an ADT value carries the named variant's
// tag. Recursive ADTs are reached through their RC pointer first.
func (g *Generator) buildOfVariant(fb *fn, matchee value.Value, variant string) value.Value {
	i, ok := g.adts.VariantIndex(variant)
	if !ok {
		panic(ice("no variant index of `%s` in buildOfVariant", variant))
	}
	expected := constant.NewInt(types.I16, int64(i))
	var found value.Value
	if g.adts.AdtOfVariantIsRecursive(variant) {
		inner := fb.setName(g.buildGepRCContents(fb, matchee), "of-variant-inner-ptr")
		found = g.buildLoadCar(fb, inner)
	} else {
		found = g.buildExtractCar(fb, matchee)
	}
	found = fb.setName(found, "of-variant-found-tag")
	return fb.setName(fb.cur.NewICmp(enum.IPredEQ, expected, found), "of-variant-is-expected")
}

// buildAsVariant reads an ADT value's payload as the named variant's member
// tuple, by viewing the payload slot through a pointer of the variant type.
func (g *Generator) buildAsVariant(fb *fn, matchee value.Value, variant string, inst []ast.Type) value.Value {
	var wrappedPtr value.Value
	if g.adts.AdtOfVariantIsRecursive(variant) {
		wrappedPtr = g.buildGepRCContents(fb, matchee)
	} else {
		stack := fb.cur.NewAlloca(matchee.Type())
		fb.cur.NewStore(matchee, stack)
		wrappedPtr = stack
	}
	wrappedPtr = fb.setName(wrappedPtr, "as-variant-wrapped-ptr")
	wrappedType := wrappedPtr.Type().(*types.PointerType).ElemType
	largestPtr := fb.setName(fb.cur.NewGetElementPtr(wrappedType, wrappedPtr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 1)), "as-variant-largest-ptr")
	variantType, ok := g.adts.TypeWithInstOfVariantWithName(variant, inst)
	if !ok {
		panic(ice("no type of variant `%s` in buildAsVariant", variant))
	}
	unwrappedType := g.lowerType(variantType)
	unwrappedPtr := fb.setName(fb.cur.NewBitCast(largestPtr, types.NewPointer(unwrappedType)), "as-variant-unwrapped-ptr")
	return fb.setName(fb.cur.NewLoad(unwrappedType, unwrappedPtr), "as-variant-unwrapped")
}

// pattBinding records a variable bound inside a pattern, in first-seen
// order, for installation around the case body.
type pattBinding struct {
	name string
	val  value.Value
}

// genMatchCasePatt emits the tests of one pattern. Failed tests branch to
// nextBranch; fb ends in the block reached when every test has passed.
func (g *Generator) genMatchCasePatt(env *Env, fb *fn, bindings *[]pattBinding,
	matchee value.Value, matcheeAdtInst []ast.Type, patt ast.Pattern, nextBranch *ir.Block) {
	switch patt := patt.(type) {
	case ast.PatNil:
		// Unit matches unconditionally.
	case ast.PatNumLit:
		n := g.genNum(patt.Lit)
		eq := g.buildEq(fb, matchee, n)
		then := fb.block("patt_then")
		fb.cur.NewCondBr(eq, then, nextBranch)
		fb.cur = then
	case ast.PatVariable:
		if patt.Ident.S == "_" {
			return
		}
		for _, b := range *bindings {
			if b.name == patt.Ident.S {
				panic("unimplemented: multiple occurrences of identifier in pattern")
			}
		}
		*bindings = append(*bindings, pattBinding{name: patt.Ident.S, val: matchee})
	case ast.PatDeconstr:
		variant := patt.Constr.S
		memberTypes, ok := g.adts.MembersWithInstOfVariantWithName(variant, matcheeAdtInst)
		if !ok {
			panic(ice("no members of variant `%s` in genMatchCasePatt", variant))
		}
		ofVariant := g.buildOfVariant(fb, matchee, variant)
		then := fb.block("patt_then")
		fb.cur.NewCondBr(ofVariant, then, nextBranch)
		fb.cur = then
		if len(patt.Subpatts) == 0 {
			return
		}
		inner := g.buildAsVariant(fb, matchee, variant, matcheeAdtInst)
		remaining := inner
		for i, sub := range patt.Subpatts[:len(patt.Subpatts)-1] {
			subMatchee := g.buildExtractCar(fb, remaining)
			subInst := ast.GetAdtInstArgs(memberTypes[i])
			g.genMatchCasePatt(env, fb, bindings, subMatchee, subInst, sub, nextBranch)
			remaining = g.buildExtractCdr(fb, remaining)
		}
		lastSub := patt.Subpatts[len(patt.Subpatts)-1]
		lastInst := ast.GetAdtInstArgs(memberTypes[len(patt.Subpatts)-1])
		g.genMatchCasePatt(env, fb, bindings, remaining, lastInst, lastSub, nextBranch)
	default:
		panic(ice("genMatchCasePatt: unknown pattern %T", patt))
	}
}

// genMatchCase emits one case: its pattern tests, the installation of the
// pattern's bindings as monomorphic locals, the body, and the teardown.
func (g *Generator) genMatchCase(env *Env, fb *fn, matchee value.Value,
	matcheeAdtInst []ast.Type, c ast.Case, nextBranch *ir.Block) value.Value {
	var bindings []pattBinding
	g.genMatchCasePatt(env, fb, &bindings, matchee, matcheeAdtInst, c.Patt, nextBranch)
	for _, b := range bindings {
		env.PushLocalMono(b.name, b.val)
	}
	r := g.genExpr(env, fb, c.Body, "case-body")
	for _, b := range bindings {
		env.PopLocal(b.name)
	}
	return r
}

// genMatch compiles a match into a chain of case blocks. Each case falls
// through to the next on pattern failure and branches to the final block
// with a phi contribution on success; the default case panics the running
// program with a non-exhaustive-patterns diagnostic and feeds the phi an
// undef it can never deliver.
func (g *Generator) genMatch(env *Env, fb *fn, m ast.Match) value.Value {
	matchee := g.genExpr(env, fb, m.Expr, "matchee")
	matcheeAdtInst := ast.GetAdtInstArgs(m.Expr.GetType())
	if len(m.Cases) == 0 {
		panic(ice("no cases in genMatch"))
	}

	caseBlocks := make([]*ir.Block, len(m.Cases))
	for i := range m.Cases {
		caseBlocks[i] = fb.block("case")
	}
	defaultBlock := fb.block("case_default")
	finalBlock := fb.block("case_final")
	var incoming []*ir.Incoming

	fb.cur.NewBr(caseBlocks[0])
	for i, c := range m.Cases {
		fb.cur = caseBlocks[i]
		next := defaultBlock
		if i+1 < len(caseBlocks) {
			next = caseBlocks[i+1]
		}
		caseVal := g.genMatchCase(env, fb, matchee, matcheeAdtInst, c, next)
		// The block that jumped to the final block on a successful match,
		// i.e. the one the phi must name.
		caseLast := fb.cur
		fb.cur.NewBr(finalBlock)
		incoming = append(incoming, ir.NewIncoming(caseVal, caseLast))
	}

	fb.cur = defaultBlock
	msg := m.Pos.ErrorString(errors.RuntimeNonExhaustPatts,
		"Non-exhaustive patterns in match. Fell all the way through!")
	g.buildPanic(fb, env, msg)
	fb.cur.NewBr(finalBlock)
	retType := g.lowerType(m.Typ)
	incoming = append(incoming, ir.NewIncoming(constant.NewUndef(retType), defaultBlock))

	fb.cur = finalBlock
	return fb.cur.NewPhi(incoming...)
}
