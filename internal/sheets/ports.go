package sheets

import (
	"context"

	"lifeboard/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter appends an applied transaction to an external
	// ledger. Exporting the same transaction twice must not add a second row.
	TransactionExporter interface {
		Export(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}
)
