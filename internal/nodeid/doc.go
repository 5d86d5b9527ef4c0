/*
Package nodeid provides the structured address of a render node, based on the
canonical format `path`.

The format is a dot-separated sequence of child positions, each optionally
followed by the loop iteration that produced it, e.g. `0.2.1[3]`. The full id
used in generated markup appends the document id: `0.2.1[3]:main`.

This package centralizes all formatting and parsing of node ids.
*/
package nodeid
