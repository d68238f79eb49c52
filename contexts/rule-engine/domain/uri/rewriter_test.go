package uri

import "testing"

func TestLocalUnitToHTTPRewritesPrefix(t *testing.T) {
	got := LocalUnitToHTTP("https://unit.example/", "localunit:__ctl/Account")
	want := "https://unit.example/__ctl/Account"
	if got != want {
		t.Fatalf("LocalUnitToHTTP() = %q, want %q", got, want)
	}
}

func TestLocalUnitToHTTPPassesThroughOtherSchemes(t *testing.T) {
	s := "https://already-absolute.example/engine"
	if got := LocalUnitToHTTP("https://unit.example/", s); got != s {
		t.Fatalf("LocalUnitToHTTP() = %q, want unchanged %q", got, s)
	}
}

func TestLocalCellToHTTPRewritesPrefix(t *testing.T) {
	got := LocalCellToHTTP("https://unit.example/cell1/", "localcell:__ctl/Account")
	want := "https://unit.example/cell1/__ctl/Account"
	if got != want {
		t.Fatalf("LocalCellToHTTP() = %q, want %q", got, want)
	}
}

func TestLocalBoxToLocalCellRewritesIntoLocalCellForm(t *testing.T) {
	got := LocalBoxToLocalCell("localbox:col/file.txt", "box1")
	want := "localcell:box1/col/file.txt"
	if got != want {
		t.Fatalf("LocalBoxToLocalCell() = %q, want %q", got, want)
	}
}

func TestLocalBoxToHTTPExpandsDirectlyToAbsolute(t *testing.T) {
	got := LocalBoxToHTTP("https://unit.example/cell1/", "box1", "localbox:col/file.txt")
	want := "https://unit.example/cell1/box1col/file.txt"
	if got != want {
		t.Fatalf("LocalBoxToHTTP() = %q, want %q", got, want)
	}
}

func TestHasLocalBoxAndCellScheme(t *testing.T) {
	if !HasLocalBoxScheme("localbox:col") {
		t.Fatalf("expected localbox: scheme to be detected")
	}
	if HasLocalBoxScheme("localcell:col") {
		t.Fatalf("did not expect localcell: to report as localbox:")
	}
	if !HasLocalCellScheme("localcell:col") {
		t.Fatalf("expected localcell: scheme to be detected")
	}
}
