package registry

import "testing"

func TestResolveCatalogueModel(t *testing.T) {
	info := Resolve("z-ai/glm-4.5-air:free")

	if info.DisplayName != "GLM 4.5 Air" {
		t.Fatalf("unexpected display name: %q", info.DisplayName)
	}

	if info.Provider != "Z.AI" {
		t.Fatalf("unexpected provider: %q", info.Provider)
	}

	if !info.Free {
		t.Fatalf("expected catalogue model to be free-tier")
	}
}

func TestResolveUnknownModel(t *testing.T) {
	info := Resolve("acme/super-duper-9000:free")

	if info.DisplayName == "" {
		t.Fatalf("expected non-empty display name")
	}

	if info.Provider != "Acme" {
		t.Fatalf("unexpected provider: %q", info.Provider)
	}

	if !info.Free {
		t.Fatalf("expected :free suffix to mark model as free-tier")
	}
}

func TestResolveUnknownPaidModel(t *testing.T) {
	info := Resolve("openai/gpt-4o")

	if info.Free {
		t.Fatalf("expected model without :free suffix to be paid")
	}

	if info.DisplayName != "Gpt 4o" {
		t.Fatalf("unexpected display name: %q", info.DisplayName)
	}
}

func TestResolveEmptyIdentifier(t *testing.T) {
	info := Resolve("   ")

	if info.DisplayName == "" {
		t.Fatalf("expected fallback display name for empty identifier")
	}
}

func TestCataloguePreservesOrder(t *testing.T) {
	ids := Catalogue()

	if len(ids) == 0 {
		t.Fatalf("expected non-empty catalogue")
	}

	if ids[0] != catalogue[0].ID {
		t.Fatalf("expected catalogue order to be preserved, got %q first", ids[0])
	}

	for _, id := range ids {
		if !InCatalogue(id) {
			t.Fatalf("catalogue entry %q not reported as in catalogue", id)
		}
	}

	if InCatalogue("acme/super-duper-9000:free") {
		t.Fatalf("unexpected catalogue membership")
	}
}
