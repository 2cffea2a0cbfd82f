// Package templates renders the HTML pages of the data editor. The
// components live in .templ files; the _templ.go files are generated.
package templates

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.960 generate
