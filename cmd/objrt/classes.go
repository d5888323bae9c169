package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Doodledash6/touchHLE/objc"
)

// printClassTree writes every registered class indented under its
// superclass, with its identity and local method counts.
func printClassTree(w io.Writer, rt *objc.Runtime) {
	for _, c := range rt.Classes.Subclasses(nil) {
		printClass(w, rt, c)
	}
}

func printClass(w io.Writer, rt *objc.Runtime, c *objc.Class) {
	abstract := ""
	if c.Abstract {
		abstract = " abstract"
	}
	fmt.Fprintf(w, "%s%s (%s%s) +%d -%d\n", strings.Repeat("  ", c.Depth()), c.Name, c.ID, abstract,
		len(c.ClassVTable.LocalSelectors()), len(c.VTable.LocalSelectors()))

	for _, sub := range rt.Classes.Subclasses(c) {
		printClass(w, rt, sub)
	}
}
