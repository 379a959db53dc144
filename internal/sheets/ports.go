package sheets

import "context"

// RowAppender pushes tabular export rows to an external spreadsheet.
type RowAppender interface {
	AppendRows(ctx context.Context, rows [][]any) error
}
