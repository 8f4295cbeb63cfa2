package cache

// ScopedKeyer prefixes every key of an inner Keyer. The pipeline scopes keys
// by build version so a release never serves images rendered by another.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) RenderKey(markdown string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(markdown, opts)
}
