// Command talentctl is the operator CLI for the assessment pipeline.
package main

func main() {
	Execute()
}
