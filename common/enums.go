// The only reason this package exists is because debug tools need some of the
// enums and the package identifier rules. Those tools have their own tiny flag
// handling and should not drag in the whole program configuration, so the
// shared pieces live in a package of their own.
package common

// Specification of requested output layout.
// ENUM(tree, bundle)
type OutputFmt int

func (o OutputFmt) Bundled() bool {
	return o == OutputFmtBundle
}

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtTree:
		return ""
	case OutputFmtBundle:
		return ".zip"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// Format of debug dumps.
// ENUM(text, json)
type DumpFormat int
