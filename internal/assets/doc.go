// Package assets provides the CSS styles used by the html and pdf formats.
//
// Styles are embedded at compile time under styles/{name}.css. Names are
// validated so they can never address a file outside the embedded tree.
package assets
