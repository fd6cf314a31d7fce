// Vahti - Daily AWS Resource Inventory Reports
// Collect. Classify. Deliver.
package main

func main() {
	Execute()
}
