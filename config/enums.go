package config

// Specification of how pages with already populated implementors sections are
// treated during injection.
// ENUM(replace, skip)
type InjectMode int

// Kind of a built-in icon asset.
// ENUM(logo, favicon)
type IconKind int

func (k IconKind) FileName() string {
	switch k {
	case IconKindLogo:
		return "impdex-logo.svg"
	case IconKindFavicon:
		return "favicon.svg"
	default:
		// this should never happen
		panic("unsupported icon requested")
	}
}
