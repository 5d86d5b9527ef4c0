// Package site is the file system host for the renderer. It reads the site
// configuration (site.hcl), locates documents under the site root and answers
// the interpreter's questions: module sources come from files, foreign
// variables from `foreign` blocks, and processor calls go to the registry,
// optionally renamed and pre-filled by `processor` blocks.
//
//	root    = "docs"
//	runtime = "/ftd.js"
//
//	foreign "lib" {
//	  values = { user = "ada" }
//	}
//
//	processor "greeting" {
//	  handler = "env"
//	  args    = { name = "GREETING" }
//	}
package site
