// Command privlens scans pages for privacy-sensitive terms.
package main

import (
	"log"

	"github.com/cognicore/privlens/cmd/privlens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
