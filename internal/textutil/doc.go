// Package textutil derives filesystem-safe rendition names from input file
// names.
package textutil
