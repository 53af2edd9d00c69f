package domain

// SyncOptions is the immutable per-run snapshot of the sync toggles.
// It is constructed once per run and passed explicitly into the payload
// builder and reconciliation engine.
type SyncOptions struct {
	Stock       bool
	Price       bool
	Description bool
	Image       bool

	// EnrichmentOverride lets an AI-supplied description replace the ERP
	// one; it has no effect unless Description sync is enabled too.
	EnrichmentOverride bool
}
