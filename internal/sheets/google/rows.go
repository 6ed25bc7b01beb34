package google

import (
	"fmt"
	"strings"

	"lifeboard/internal/core"
)

// Sheet layout: Date, Category, Description, Amount, Budget, Kind, ID.
const idColumn = "G"

func transactionRow(tx core.Transaction) []any {
	budget, kind := "", "quick"
	if !tx.IsQuick() {
		budget, kind = *tx.BudgetID, "budget"
	}
	return []any{
		tx.TransactionDate.Format("2006-01-02"),
		tx.Category,
		tx.Description,
		tx.Amount.Units(),
		budget,
		kind,
		tx.ID,
	}
}

// findRow returns the 1-based row whose single cell equals id, or 0.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}
