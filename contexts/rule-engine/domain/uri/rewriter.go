// Package uri implements the local-scheme rewriting rules between
// localunit:, localcell:, localbox: and absolute http(s) URLs.
// Every function here is pure: nil/empty input passes through unchanged,
// and no function holds or consults shared state.
package uri

import "strings"

const (
	schemeLocalUnit = "localunit:"
	schemeLocalCell = "localcell:"
	schemeLocalBox  = "localbox:"
)

// LocalUnitToHTTP replaces a leading "localunit:" with unitURL. Pass
// through otherwise.
func LocalUnitToHTTP(unitURL, s string) string {
	if !strings.HasPrefix(s, schemeLocalUnit) {
		return s
	}
	return unitURL + strings.TrimPrefix(s, schemeLocalUnit)
}

// LocalCellToHTTP replaces a leading "localcell:" with cellURL. Pass
// through otherwise.
func LocalCellToHTTP(cellURL, s string) string {
	if !strings.HasPrefix(s, schemeLocalCell) {
		return s
	}
	return cellURL + strings.TrimPrefix(s, schemeLocalCell)
}

// LocalBoxToLocalCell replaces a leading "localbox:" with
// "localcell:<boxName>/". Pass through otherwise.
func LocalBoxToLocalCell(s, boxName string) string {
	if !strings.HasPrefix(s, schemeLocalBox) {
		return s
	}
	return schemeLocalCell + boxName + "/" + strings.TrimPrefix(s, schemeLocalBox)
}

// LocalBoxToHTTP expands a leading "localbox:" directly to the absolute
// form cellURL + boxName + rest. Pass through otherwise.
func LocalBoxToHTTP(cellURL, boxName, s string) string {
	if !strings.HasPrefix(s, schemeLocalBox) {
		return s
	}
	return cellURL + boxName + strings.TrimPrefix(s, schemeLocalBox)
}

// HasLocalBoxScheme reports whether s carries the "localbox:" prefix.
func HasLocalBoxScheme(s string) bool {
	return strings.HasPrefix(s, schemeLocalBox)
}

// HasLocalCellScheme reports whether s carries the "localcell:" prefix.
func HasLocalCellScheme(s string) bool {
	return strings.HasPrefix(s, schemeLocalCell)
}
