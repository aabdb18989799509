// Prints a random hex secret suitable for token signing.
// Run it twice: once for ACCESS_SECRET, once for REFRESH_SECRET.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

const secretBytesLen = 32

func main() {
	b := make([]byte, secretBytesLen)

	_, err := rand.Read(b)
	if err != nil {
		fmt.Printf("error while generating secret: %v", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
