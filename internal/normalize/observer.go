package normalize

// Observer receives diagnostics produced while canonicalizing entries.
// Implementations must not change the outcome of normalization.
type Observer interface {
	TypoCorrected(from, to string)
	UnknownSuffix(value, leftover string)
	IdentityFromName(name, identity string)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) TypoCorrected(string, string)    {}
func (NopObserver) UnknownSuffix(string, string)    {}
func (NopObserver) IdentityFromName(string, string) {}
