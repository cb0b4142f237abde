// Package shared holds helpers used by more than one package. Its testutil
// subpackage builds fixture workbooks and captures slog output in tests.
package shared
