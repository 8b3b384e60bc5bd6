package assets

// Resolver resolves a source stylesheet name to its public URL path,
// combining manifest lookup with path prefixing.
type Resolver interface {
	// Stylesheet resolves a source stylesheet name to its full URL path,
	// including any configured prefix and fingerprinted filename.
	//
	// Example:
	//   resolver.Stylesheet("dashboard.css") → "/styles/dashboard.a1b2c3d4.css"
	Stylesheet(source string) string
}

// manifestResolver wraps a Manifest to implement Resolver.
type manifestResolver struct {
	manifest *Manifest
	prefix   string
}

// NewResolver creates a Resolver from a Manifest with an optional path
// prefix. The prefix is prepended to all resolved paths, e.g. "/styles/".
func NewResolver(m *Manifest, prefix string) Resolver {
	return &manifestResolver{
		manifest: m,
		prefix:   prefix,
	}
}

func (r *manifestResolver) Stylesheet(source string) string {
	return r.prefix + r.manifest.Resolve(source)
}

// passthrough returns names unchanged (for development mode).
type passthrough struct {
	prefix string
}

// NewPassthroughResolver creates a resolver that returns names unchanged
// apart from the prefix. Use this in development mode where fingerprinting
// is disabled, so dev and prod paths stay consistent.
func NewPassthroughResolver(prefix string) Resolver {
	return &passthrough{prefix: prefix}
}

func (p *passthrough) Stylesheet(source string) string {
	return p.prefix + source
}
