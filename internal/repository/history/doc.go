// Package history records packager runs in a local SQLite database so the
// team can answer "what did we last ship, and was it published?" without
// digging through CI logs.
package history
