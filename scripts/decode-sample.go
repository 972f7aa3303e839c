package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/beevik/etree"

	"eventor/internal/schema"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: go run scripts/decode-sample.go <document.xml>")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	// Sniff the document root so saved API responses of any kind work.
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing XML: %v\n", err)
		os.Exit(1)
	}
	root := doc.Root()
	if root == nil {
		fmt.Fprintln(os.Stderr, "Error: document has no root element")
		os.Exit(1)
	}

	var dst interface{}
	switch root.Tag {
	case "Event":
		dst = &schema.Event{}
	case "EventList":
		dst = &schema.EventList{}
	case "ResultList":
		dst = &schema.ResultList{}
	case "ResultListList":
		dst = &schema.ResultListList{}
	case "Organisation":
		dst = &schema.Organisation{}
	case "OrganisationList":
		dst = &schema.OrganisationList{}
	case "PersonList":
		dst = &schema.PersonList{}
	default:
		fmt.Fprintf(os.Stderr, "Error: no decoder for document root <%s>\n", root.Tag)
		os.Exit(1)
	}

	if err := schema.Decode(data, dst); err != nil {
		fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(dst, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Decoded <%s> document from %s\n\n", root.Tag, os.Args[1])
	fmt.Println(string(out))
}
