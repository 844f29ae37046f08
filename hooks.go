package squirrel

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The store calls them on hot paths.
type Hooks interface {
	// A record was deleted by the store on load.
	// reason ∈ {"corrupt", "gen_mismatch", "value_decode", "user_agent", "expired"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// GenStore errors (snapshot or bump).
	GenSnapshotError(storageKey string, err error)
	GenBumpError(storageKey string, err error)

	// Both gen bump and delete failed during Delete (likely backend outage).
	DeleteOutage(id string, bumpErr, delErr error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)           {}
func (NopHooks) ProviderSetRejected(string)        {}
func (NopHooks) GenSnapshotError(string, error)    {}
func (NopHooks) GenBumpError(string, error)        {}
func (NopHooks) DeleteOutage(string, error, error) {}
