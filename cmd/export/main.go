// Command export generates a membership proof against a fresh in-memory
// tree and writes the Solidity-calldata fixture used by on-chain verifier
// tests. Keys must already exist in the current directory (see cmd/compile).
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sparsekv/smtkv/circuits/membership"
)

func main() {
	jsonOut, err := membership.ExportProofFixture(".")
	if err != nil {
		log.Fatalf("export proof fixture: %v", err)
	}
	if err := os.WriteFile("proof_fixture.json", jsonOut, 0644); err != nil {
		log.Fatalf("write fixture file: %v", err)
	}
	fmt.Println("\nFixture written to proof_fixture.json")
}
