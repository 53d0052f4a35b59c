package macrodex_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/skosovsky/macrodex"
)

func ExampleBuild() {
	forms, _ := macrodex.NewTemplate("forms.html", macrodex.WithMacros(macrodex.MacroSet{
		"input": {Params: []macrodex.MacroParam{{Name: "label"}}, Body: "<input>{{ label }}"},
	}))
	page, _ := macrodex.NewTemplate("page.html",
		macrodex.WithImports(macrodex.MacroImport{File: "forms.html", Namespace: "forms"}),
	)
	reg := macrodex.NewMapRegistry(forms, page)

	coll, err := macrodex.Build(context.Background(), reg, page)
	if err != nil {
		panic(err)
	}
	fmt.Println(coll.Templates())
	// Output: [forms.html page.html]
}

func ExampleMacroCollection_Lookup() {
	forms, _ := macrodex.NewTemplate("forms.html", macrodex.WithMacros(macrodex.MacroSet{"input": {}}))
	page, _ := macrodex.NewTemplate("page.html",
		macrodex.WithImports(macrodex.MacroImport{File: "forms.html", Namespace: "forms"}),
	)
	coll, _ := macrodex.Build(context.Background(), macrodex.NewMapRegistry(forms, page), page)

	origin, def, err := coll.Lookup("page.html", "forms", "input")
	if err != nil {
		panic(err)
	}
	fmt.Println(origin, def.Name)

	_, _, err = coll.Lookup("page.html", "widgets", "button")
	fmt.Println(errors.Is(err, macrodex.ErrNamespaceNotFound))
	// Output:
	// forms.html input
	// true
}

func ExampleMacroCollection_Resolve() {
	lib, _ := macrodex.NewTemplate("lib.html", macrodex.WithMacros(macrodex.MacroSet{"card": {}}))
	page, _ := macrodex.NewTemplate("page.html",
		macrodex.WithImports(macrodex.MacroImport{File: "lib.html", Namespace: "ui"}),
	)
	coll, _ := macrodex.Build(context.Background(), macrodex.NewMapRegistry(lib, page), page)

	origin, _, err := coll.Resolve("page.html", "ui::card")
	if err != nil {
		panic(err)
	}
	fmt.Println(origin)
	// Output: lib.html
}
