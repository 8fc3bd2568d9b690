// Package main is the entry point for the personal finance service.
package main

func main() {
	Execute()
}
