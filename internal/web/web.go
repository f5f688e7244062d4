// Package web holds the server-rendered HTML views. Templates are embedded in
// the binary and parsed once at startup.
package web

import (
	"embed"
	"fmt"
	"html/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var files embed.FS

// View names, as passed to gin.Context.HTML.
const (
	ProductsIndex   = "products_index.html"
	ProductsShow    = "products_show.html"
	ProductsNew     = "products_new.html"
	ProductsEdit    = "products_edit.html"
	FarmsIndex      = "farms_index.html"
	FarmsShow       = "farms_show.html"
	FarmsNew        = "farms_new.html"
	FarmProductsNew = "farm_products_new.html"
)

// Funcs returns the helpers available to every view.
func Funcs() template.FuncMap {
	return template.FuncMap{
		// Casers keep state between calls, so each call gets its own.
		"title": func(s string) string { return cases.Title(language.English).String(s) },
		"price": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	}
}

// Templates parses every embedded view.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(files, "templates/*.html")
}

// MustTemplates is Templates for package initialization; it panics on a parse
// error, which can only come from a broken build.
func MustTemplates() *template.Template {
	t, err := Templates()
	if err != nil {
		panic(err)
	}
	return t
}
