package ast

import (
	"testing"
)

func tid(s string) Ident { return Ident{S: s} }

func listDef() *AdtDef {
	return &AdtDef{
		Name:   tid("List"),
		Params: []string{"a"},
		Variants: []AdtVariant{
			{Name: tid("Nil1")},
			{Name: tid("Cons1"), Members: []Type{
				TConst{Name: "a"},
				TApp{Ctor: "List", Args: []Type{TConst{Name: "a"}}},
			}},
		},
	}
}

func shapeDef() *AdtDef {
	return &AdtDef{
		Name: tid("Shape"),
		Variants: []AdtVariant{
			{Name: tid("Circle"), Members: []Type{tInt32}},
			{Name: tid("Rect"), Members: []Type{tInt32, tInt32}},
		},
	}
}

// A pair of definitions that are mutually recursive without either
// mentioning itself directly.
func forestDefs() (*AdtDef, *AdtDef) {
	tree := &AdtDef{
		Name: tid("Tree"),
		Variants: []AdtVariant{
			{Name: tid("Node"), Members: []Type{TConst{Name: "Forest"}}},
		},
	}
	forest := &AdtDef{
		Name: tid("Forest"),
		Variants: []AdtVariant{
			{Name: tid("Empty")},
			{Name: tid("Grow"), Members: []Type{TConst{Name: "Tree"}}},
		},
	}
	return tree, forest
}

func TestVariantIndex(t *testing.T) {
	adts := NewAdts(listDef(), shapeDef())
	tests := []struct {
		variant string
		want    int
	}{
		{"Nil1", 0},
		{"Cons1", 1},
		{"Circle", 0},
		{"Rect", 1},
	}
	for _, tt := range tests {
		if got, ok := adts.VariantIndex(tt.variant); !ok || got != tt.want {
			t.Errorf("VariantIndex(%s) = %d, %v; want %d", tt.variant, got, ok, tt.want)
		}
	}
	if _, ok := adts.VariantIndex("Missing"); ok {
		t.Errorf("VariantIndex found a variant that does not exist")
	}
}

func TestParentAdtOfVariant(t *testing.T) {
	adts := NewAdts(listDef(), shapeDef())
	d, ok := adts.ParentAdtOfVariant("Cons1")
	if !ok || d.Name.S != "List" {
		t.Errorf("ParentAdtOfVariant(Cons1) = %v, %v", d, ok)
	}
}

func TestAdtRecursion(t *testing.T) {
	tree, forest := forestDefs()
	adts := NewAdts(listDef(), shapeDef(), tree, forest)

	if !adts.AdtIsRecursive(adts.Defs["List"]) {
		t.Errorf("List not detected as recursive")
	}
	if adts.AdtIsRecursive(adts.Defs["Shape"]) {
		t.Errorf("Shape detected as recursive")
	}
	// Recursion through another definition counts.
	if !adts.AdtIsRecursive(tree) || !adts.AdtIsRecursive(forest) {
		t.Errorf("mutual ADT recursion not detected")
	}
	if !adts.AdtOfVariantIsRecursive("Cons1") {
		t.Errorf("AdtOfVariantIsRecursive(Cons1) = false")
	}
	if adts.AdtOfVariantIsRecursive("Circle") {
		t.Errorf("AdtOfVariantIsRecursive(Circle) = true")
	}
}

func TestTypeWithInstOfVariant(t *testing.T) {
	adts := NewAdts(listDef(), shapeDef())

	// Empty variant: unit payload.
	typ, ok := adts.TypeWithInstOfVariantWithName("Nil1", []Type{tInt32})
	if !ok || Key(typ) != "Nil" {
		t.Errorf("Nil1 payload type = %s, %v", typ, ok)
	}

	// Parameterized variant: members substituted, folded right.
	typ, ok = adts.TypeWithInstOfVariantWithName("Cons1", []Type{tInt32})
	if !ok || Key(typ) != "(Cons Int32 (List Int32))" {
		t.Errorf("Cons1 payload type = %s, %v", typ, ok)
	}

	// Two members fold to a single pair.
	typ, ok = adts.TypeWithInstOfVariantWithName("Rect", nil)
	if !ok || Key(typ) != "(Cons Int32 Int32)" {
		t.Errorf("Rect payload type = %s, %v", typ, ok)
	}
}

func TestMembersWithInst(t *testing.T) {
	adts := NewAdts(listDef())
	members, ok := adts.MembersWithInstOfVariantWithName("Cons1", []Type{tBool})
	if !ok || len(members) != 2 {
		t.Fatalf("members = %v, %v", members, ok)
	}
	if Key(members[0]) != "Bool" {
		t.Errorf("head member = %s, want Bool", members[0])
	}
	if Key(members[1]) != "(List Bool)" {
		t.Errorf("tail member = %s, want (List Bool)", members[1])
	}
}
