// Command test prints the go test invocation that exercises the membership
// circuit end to end; it exists so the circuit's test entry point matches
// the shape of the other per-circuit commands (compile, export) even though
// "go test" itself does all the work.
package main

import "fmt"

func main() {
	fmt.Println("go test ./circuits/membership/ -v -timeout 5m")
}
