// Command reconcile imports bank statements and reconciles them against
// ledger transactions, either from the terminal or over HTTP.
package main

import "github.com/eshaffer321/ledger-reconcile/internal/cli"

func main() {
	cli.Execute()
}
