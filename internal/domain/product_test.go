package domain

import "testing"

func TestProductKind(t *testing.T) {
	tests := []struct {
		name     string
		variants int
		want     ProductKind
	}{
		{"no variants", 0, KindSimple},
		{"one variant", 1, KindSimple},
		{"two variants", 2, KindVariable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{ID: 1}
			for i := 0; i < tt.variants; i++ {
				p.Variants = append(p.Variants, &Variant{ID: int64(i + 1)})
			}
			if got := p.Kind(); got != tt.want {
				t.Errorf("Kind() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEffectiveIdentity(t *testing.T) {
	p := &Product{ID: 42}
	if got := p.EffectiveName(); got != "Product 42" {
		t.Errorf("EffectiveName() = %s, want Product 42", got)
	}
	if got := p.EffectiveSKU(); got != "tmpl-42" {
		t.Errorf("EffectiveSKU() = %s, want tmpl-42", got)
	}

	p.Name = "  Chair  "
	p.SKU = "CHAIR-1"
	if got := p.EffectiveName(); got != "Chair" {
		t.Errorf("EffectiveName() = %s, want Chair", got)
	}
	if got := p.EffectiveSKU(); got != "CHAIR-1" {
		t.Errorf("EffectiveSKU() = %s, want CHAIR-1", got)
	}

	v := &Variant{ID: 7}
	if got := v.EffectiveSKU(); got != "var-7" {
		t.Errorf("variant EffectiveSKU() = %s, want var-7", got)
	}
}

func TestImplicitVariant(t *testing.T) {
	p := &Product{ID: 1}
	if p.ImplicitVariant() != nil {
		t.Error("ImplicitVariant() != nil for zero variants")
	}

	p.Variants = []*Variant{{ID: 11}}
	if v := p.ImplicitVariant(); v == nil || v.ID != 11 {
		t.Errorf("ImplicitVariant() = %v, want the single variant", v)
	}

	p.Variants = append(p.Variants, &Variant{ID: 12})
	if p.ImplicitVariant() != nil {
		t.Error("ImplicitVariant() != nil for a variable product")
	}
}

func TestCategoryIndex(t *testing.T) {
	idx := NewCategoryIndex([]Category{
		{ID: 1, Name: "Refrigerators"},
		{ID: 2, Name: " Washing Machines "},
	})

	if id, ok := idx.Resolve("refrigerators"); !ok || id != 1 {
		t.Errorf("Resolve(refrigerators) = %d/%v, want 1/true", id, ok)
	}
	if id, ok := idx.Resolve("WASHING MACHINES"); !ok || id != 2 {
		t.Errorf("Resolve(WASHING MACHINES) = %d/%v, want 2/true", id, ok)
	}
	if _, ok := idx.Resolve("Ovens"); ok {
		t.Error("Resolve(Ovens) = true, want false")
	}
}

func TestPayloadNormalize(t *testing.T) {
	p := &ProductPayload{
		Images:     []ImageRef{},
		Attributes: []PayloadAttribute{},
		Categories: []TermRef{},
		Brands:     []TermRef{},
	}
	p.Normalize()

	if p.Images != nil || p.Attributes != nil || p.Categories != nil || p.Brands != nil {
		t.Error("Normalize() kept empty collections, want them nil so they are omitted")
	}

	p2 := &ProductPayload{Images: []ImageRef{{ID: 5}}}
	p2.Normalize()
	if len(p2.Images) != 1 {
		t.Error("Normalize() dropped a non-empty collection")
	}
}

func TestVariationBatchEmpty(t *testing.T) {
	b := &VariationBatch{}
	if !b.Empty() {
		t.Error("Empty() = false for a zero batch")
	}
	b.Delete = []int64{1}
	if b.Empty() {
		t.Error("Empty() = true with pending deletes")
	}
}
